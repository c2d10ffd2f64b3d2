// Package transform turns a queued image source into a foreground mask and a
// cutout with the background made transparent.
//
// Two engines implement Transformer. The local engine keys the background
// from the image border at a bounded working size and needs no model. The
// remote engine posts the source to an inference endpoint that returns a
// mask. Both resize the mask to the decoded source dimensions and apply it as
// alpha, so outputs always match the input size.
//
// Source bytes come from data URIs, http(s) and file URLs, or in-memory
// buffers; PNG, JPEG, GIF, WebP, BMP and TIFF inputs are decoded. Failures are
// returned as *Error values tagged with services.ErrTransform, or
// services.ErrTimeout when the caller's deadline expired.
package transform
