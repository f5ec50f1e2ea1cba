// Package hostsim is an in-process simulation of the host engine.
//
// It implements abi.HostInterface, stores the descriptors a library
// registers, and drives their callbacks in the order the engine would:
// create on instantiation, _ready before the ready notification, dynamic
// property callbacks before typed properties, get_property_list paired with
// free_property_list, and free followed by recreate on hot reload.
//
// SkewHash lets a test impersonate an engine whose virtual signatures differ
// from the ones this build was compiled against.
package hostsim
