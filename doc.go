// Package tinywasm is a minimal WebAssembly runtime: a binary decoder, a
// lightweight structural validator, an instantiator, and a tree-walking
// stack-machine interpreter, sufficient to decode and run the i32
// functions of a Wasm 1.0 module built from that subset.
//
// Floating point, tables, linear memories, globals, imports, the start
// section, multi-value results, SIMD, threads, GC, and ahead-of-time/JIT
// compilation are all out of scope.
package tinywasm
