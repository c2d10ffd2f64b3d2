// Package textutil provides filename and message helpers shared by the
// export, queue, transform and CLI layers.
//
// Display names arrive from URLs, uploads and local paths, so they are
// sanitized before they become part of a file written under the output
// directory. Text that ends up in item details is shortened on rune
// boundaries.
package textutil
