// Package render turns sky-map data into displayable PNG images.
//
// The package operates on flat float64 grids in FITS order (longitude
// fastest, row 0 at the bottom) so it stays independent of the cube types.
// Values are normalized over the data range, passed through an intensity
// stretch (linear, sqrt or log) and mapped through a colormap before being
// written out as PNG, either to an io.Writer or base64-encoded in a result
// struct.
//
// Colormaps are built from gradient stops blended in HCL space, which keeps
// perceived brightness monotonic across the ramp.
package render
