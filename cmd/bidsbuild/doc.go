// Command bidsbuild converts raw EmoRep scanner exports into a BIDS
// rawdata layout. It wraps the conversion workflow behind build, status,
// deps, and config subcommands.
package main
