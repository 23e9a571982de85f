// Package cube implements the SkyCube data object for combined
// spatial/spectral ("cube style") gamma-ray analysis.
//
// A SkyCube is a 3D array of flux values over two sky-coordinate dimensions
// and one energy dimension, together with the WCS geometry describing the
// pixelization. Sky images are 2D slices or reductions of a cube, carrying
// the spatial part of the geometry.
//
// # Array Layout
//
// Cube data is stored flat in FITS order: longitude varies fastest, then
// latitude, then energy. Index helpers on SkyCube and SkyImage encapsulate
// the layout; callers should not compute flat offsets themselves.
//
// # Flux Interpolation
//
// Spectral lookups and energy-band integration assume power-law behavior
// between energy nodes, i.e. interpolation and quadrature are performed in
// log-log space. Bins with non-positive flux fall back to linear handling.
package cube
