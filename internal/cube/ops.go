package cube

// Spatial reshaping operations. Each returns a new cube; the receiver is
// never modified.

// Downsample rebins the cube spatially by the given factor, averaging the
// merged pixels so intensive quantities (flux per solid angle) keep their
// meaning. The map size must be divisible by the factor.
func (c *SkyCube) Downsample(factor int) (*SkyCube, error) {
	geom, err := c.Geom.Downsample(factor)
	if err != nil {
		return nil, err
	}

	out, err := NewEmpty(c.Name, c.Unit, geom)
	if err != nil {
		return nil, err
	}

	norm := 1.0 / float64(factor*factor)
	for iE := 0; iE < geom.Axis.NBins(); iE++ {
		for iy := 0; iy < geom.NpixLat; iy++ {
			for ix := 0; ix < geom.NpixLon; ix++ {
				var sum float64
				for dy := 0; dy < factor; dy++ {
					for dx := 0; dx < factor; dx++ {
						sum += c.At(iE, iy*factor+dy, ix*factor+dx)
					}
				}
				out.Set(iE, iy, ix, sum*norm)
			}
		}
	}
	return out, nil
}

// Upsample refines the cube spatially by the given factor, replicating
// pixel values.
func (c *SkyCube) Upsample(factor int) (*SkyCube, error) {
	geom, err := c.Geom.Upsample(factor)
	if err != nil {
		return nil, err
	}

	out, err := NewEmpty(c.Name, c.Unit, geom)
	if err != nil {
		return nil, err
	}

	for iE := 0; iE < geom.Axis.NBins(); iE++ {
		for iy := 0; iy < geom.NpixLat; iy++ {
			for ix := 0; ix < geom.NpixLon; ix++ {
				out.Set(iE, iy, ix, c.At(iE, iy/factor, ix/factor))
			}
		}
	}
	return out, nil
}

// Pad grows the cube by pad zero-valued pixels on each spatial edge.
func (c *SkyCube) Pad(pad int) (*SkyCube, error) {
	geom, err := c.Geom.Pad(pad)
	if err != nil {
		return nil, err
	}
	out, err := NewEmpty(c.Name, c.Unit, geom)
	if err != nil {
		return nil, err
	}

	for iE := 0; iE < c.Geom.Axis.NBins(); iE++ {
		for iy := 0; iy < c.Geom.NpixLat; iy++ {
			for ix := 0; ix < c.Geom.NpixLon; ix++ {
				out.Set(iE, iy+pad, ix+pad, c.At(iE, iy, ix))
			}
		}
	}
	return out, nil
}

// Crop removes crop pixels from each spatial edge of the cube.
func (c *SkyCube) Crop(crop int) (*SkyCube, error) {
	geom, err := c.Geom.Crop(crop)
	if err != nil {
		return nil, err
	}

	out, err := NewEmpty(c.Name, c.Unit, geom)
	if err != nil {
		return nil, err
	}

	for iE := 0; iE < geom.Axis.NBins(); iE++ {
		for iy := 0; iy < geom.NpixLat; iy++ {
			for ix := 0; ix < geom.NpixLon; ix++ {
				out.Set(iE, iy, ix, c.At(iE, iy+crop, ix+crop))
			}
		}
	}
	return out, nil
}
