// Package romkit documents the layout of this module; it declares no
// symbols of its own.
//
// romkit extracts and rebuilds the game-data archive blobs of a 32-bit
// console RPG. A blob is one of two things, optionally wrapped in the
// "CM" LZ77 container:
//
//   - an SGGG palette-indexed image, interchanged as PNG (package sggg)
//   - event bytecode: an aligned opcode stream carrying pointers,
//     unmanaged data runs, and Shift-JIS/English dialog strings
//     (packages event, dialog, sjis)
//
// The filename extension chain records which passes a blob went
// through, leaf to root: 0042.lz77.png means "PNG, compress with LZ77 to
// get the archive's raw blob bytes." See cmd/romkit for the unpack/pack
// CLI driver built on these packages.
package romkit
