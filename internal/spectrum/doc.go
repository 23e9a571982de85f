// Package spectrum extracts 1D flux spectra from sky cubes.
//
// An extraction sums the cube over a circular on region for each energy
// plane and estimates the local background from reflected off regions,
// copies of the on region rotated around the pointing center so they sit
// at the same offset and see the same exposure.
//
// # Extraction
//
// For every energy bin the on and off regions are integrated with
// solid-angle weights, the off sum is scaled by the on/off area ratio,
// and the difference is reported as the excess. A safe energy range is
// derived from the on spectrum: the low threshold is the first bin edge
// where the on value reaches a percentage of its peak.
//
// Results and the extraction configuration are serialized as YAML.
package spectrum
