// Package config loads the extension manifest.
//
// The manifest is TOML in the shape the host reads, with an extra [bridge]
// section for this library:
//
//	[configuration]
//	entry_symbol = "classbridge_init"
//	compatibility_minimum = "4.1"
//	reloadable = true
//
//	[libraries]
//	"linux.x86_64" = "res://bin/libdemo.so"
//
//	[bridge]
//	unwind_policy = "recover"   # or "abort"
//	log_level = "info"
//	log_format = "json"         # or "console"
//	init_level = "scene"
package config
