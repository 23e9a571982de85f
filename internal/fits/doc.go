// Package fits reads and writes sky cubes as FITS files.
//
// Three serialization conventions are understood, mirroring the formats
// common for gamma-ray survey data:
//
//   - "fermi-background": a 3D primary image plus an ENERGIES binary table
//     listing the energy of each plane in MeV. This is the layout of the
//     Fermi-LAT diffuse emission templates (e.g. gll_iem files).
//   - "fgst-ccube": a 3D primary image plus an EBOUNDS binary table with
//     E_MIN/E_MAX columns defining the bin edges of each plane.
//   - "gadf": the energy axis is carried on the primary header as a third
//     WCS axis (CTYPE3='Energy', CRVAL3/CDELT3 linear node spacing).
//
// When no format is requested the convention is discovered from the HDU
// names, ENERGIES implying fermi-background and EBOUNDS implying
// fgst-ccube, with the header axis as the fallback.
package fits
