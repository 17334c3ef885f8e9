// Copyright 2024 The bgen authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package bgen reads and writes BGEN files: a compact binary container for
// genotype probability data from genome-wide studies.
//
// A BGEN file is a header, an optional sample identifier block, and a
// sequence of variant records. Each variant record carries a textual
// descriptor (identifier, chromosome, position, alleles) followed by a
// compressed block of per-sample genotype probability distributions.
//
// Two on-disk block layouts are supported: layout 1 (fixed diploid,
// unphased, uint16-scaled triplets) and layout 2 (variable ploidy, phased
// or unphased, bit depth 1..32). Compression is either absent, zlib, or
// zstd.
//
// A companion .bgi file (a small sqlite3-backed relational index of
// chromosome, position, rsid, and file offset) enables O(log n) lookup of
// variants without a full linear scan; see the bgi subpackage.
package bgen
