// Package wcs implements the World Coordinate System geometry used by sky
// cubes and sky images.
//
// Only the plate carrée (CAR) projection is supported, in either Galactic
// (GLON-CAR / GLAT-CAR) or equatorial (RA---CAR / DEC--CAR) coordinates.
// The package provides transformations between pixel and world coordinates,
// a log-interpolated energy axis for the non-spatial cube dimension, and a
// Geom type that couples the projection with the pixelization.
//
// # Pixel Conventions
//
// All public APIs use 0-based pixel coordinates where pixel (0, 0) is the
// first (bottom-left in FITS display orientation) pixel center. The FITS
// CRPIX keyword is 1-based; the conversion is handled internally when a WCS
// is built from or written to a FITS header.
//
// # Units
//
// Sky coordinates and pixel scales are in degrees. Solid angles are in
// steradians. Energies carry the unit recorded on the axis (MeV for the
// Fermi conventions).
package wcs
