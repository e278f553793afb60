// Package catalog holds the analysis prompt repository and turns scanned
// source trees into check units. A repository maps language to category to
// subcategory templates; expansion crosses discovered files with the
// templates their language selects, chunking large files by line range.
package catalog
