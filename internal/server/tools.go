package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperties are the cube selection parameters shared by every tool.
func pathProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to the FITS cube file",
		},
		"format": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"fermi-background", "fgst-ccube", "gadf"},
			"description": "Serialization convention. Omit to discover from the file",
		},
	}
}

// renderProperties are the rendering parameters shared by the image tools.
func renderProperties() map[string]interface{} {
	return map[string]interface{}{
		"colormap": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"gamma", "heat", "gray"},
			"description": "Colormap name (default 'gamma')",
			"default":     "gamma",
		},
		"stretch": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"linear", "sqrt", "log"},
			"description": "Intensity stretch (default 'linear')",
			"default":     "linear",
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Cube Information
		{
			Name:        "cube_load",
			Description: "Load a sky cube file and return its geometry, energy axis and units. Caches the cube for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pathProperties(),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "cube_summary",
			Description: "Get a human-readable multi-line summary of a cube: shape, unit, axis types and energy range.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pathProperties(),
				"required":   []string{"path"},
			},
		},

		// Point Queries
		{
			Name:        "cube_flux_at",
			Description: "Get the differential flux at a sky position and energy, interpolating as a power law between the neighboring energy planes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(pathProperties(), map[string]interface{}{
					"lon": map[string]interface{}{
						"type":        "number",
						"description": "Longitude in degrees, in the cube's coordinate system",
					},
					"lat": map[string]interface{}{
						"type":        "number",
						"description": "Latitude in degrees",
					},
					"energy": map[string]interface{}{
						"type":        "number",
						"description": "Energy in the cube's energy unit",
					},
				}),
				"required": []string{"path", "lon", "lat", "energy"},
			},
		},

		// Image Operations
		{
			Name:        "cube_sky_image",
			Description: "Render the cube plane nearest to an energy as a base64-encoded PNG with map statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(pathProperties(), renderProperties(), map[string]interface{}{
					"energy": map[string]interface{}{
						"type":        "number",
						"description": "Energy selecting the plane, in the cube's energy unit",
					},
					"smooth_sigma": map[string]interface{}{
						"type":        "number",
						"description": "Optional Gaussian smoothing width in pixels, applied to the data before rendering",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional output scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				}),
				"required": []string{"path", "energy"},
			},
		},
		{
			Name:        "cube_sky_image_integral",
			Description: "Integrate the cube over an energy band and render the integral flux map as a base64-encoded PNG with map statistics.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(pathProperties(), renderProperties(), map[string]interface{}{
					"e_min": map[string]interface{}{
						"type":        "number",
						"description": "Lower integration bound. Defaults to the axis minimum",
					},
					"e_max": map[string]interface{}{
						"type":        "number",
						"description": "Upper integration bound. Defaults to the axis maximum",
					},
					"smooth_sigma": map[string]interface{}{
						"type":        "number",
						"description": "Optional Gaussian smoothing width in pixels",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional output scale factor. Default 1.0",
						"default":     1.0,
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "cube_grid_overlay",
			Description: "Render a cube plane with a coordinate graticule overlay for positioning reference.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(pathProperties(), renderProperties(), map[string]interface{}{
					"energy": map[string]interface{}{
						"type":        "number",
						"description": "Energy selecting the plane, in the cube's energy unit",
					},
					"spacing_deg": map[string]interface{}{
						"type":        "number",
						"description": "Degrees between graticule lines (default 5)",
						"default":     5,
					},
					"show_labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Whether to label the graticule lines with coordinates",
						"default":     true,
					},
				}),
				"required": []string{"path", "energy"},
			},
		},

		// Analysis Operations
		{
			Name:        "cube_find_sources",
			Description: "Detect point-source candidates in the energy-integrated map. Returns peaks with sky coordinates and significance.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(pathProperties(), map[string]interface{}{
					"e_min": map[string]interface{}{
						"type":        "number",
						"description": "Lower integration bound. Defaults to the axis minimum",
					},
					"e_max": map[string]interface{}{
						"type":        "number",
						"description": "Upper integration bound. Defaults to the axis maximum",
					},
					"threshold": map[string]interface{}{
						"type":        "number",
						"description": "Significance threshold in standard deviations (default 5)",
						"default":     5,
					},
					"min_separation": map[string]interface{}{
						"type":        "number",
						"description": "Minimum angular separation between sources in degrees (default 0, keep all)",
					},
				}),
				"required": []string{"path"},
			},
		},
		{
			Name:        "cube_spectrum",
			Description: "Extract the spectrum of a circular region with reflected-region background estimation. Returns per-bin on/off values and excess.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": merge(pathProperties(), map[string]interface{}{
					"region": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"lon":    map[string]interface{}{"type": "number"},
							"lat":    map[string]interface{}{"type": "number"},
							"radius": map[string]interface{}{"type": "number", "description": "Region radius in degrees"},
						},
						"required":    []string{"lon", "lat", "radius"},
						"description": "On region to extract",
					},
					"center": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"lon": map[string]interface{}{"type": "number"},
							"lat": map[string]interface{}{"type": "number"},
						},
						"description": "Pointing center the background regions are reflected around; defaults to the map center",
					},
					"min_off_regions": map[string]interface{}{
						"type":        "integer",
						"description": "Smallest acceptable number of background regions (default 1)",
						"default":     1,
					},
					"lo_threshold_percent": map[string]interface{}{
						"type":        "number",
						"description": "Percent of the on peak defining the low energy threshold (default 10)",
						"default":     10,
					},
				}),
				"required": []string{"path", "region"},
			},
		},
	}
}

// merge combines property maps; later maps win on key conflicts.
func merge(maps ...map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
