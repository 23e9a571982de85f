package server

import (
	"encoding/json"
	"fmt"

	"github.com/orionlab/cube-tools-mcp/internal/cube"
	"github.com/orionlab/cube-tools-mcp/internal/detect"
	"github.com/orionlab/cube-tools-mcp/internal/fits"
	"github.com/orionlab/cube-tools-mcp/internal/render"
	"github.com/orionlab/cube-tools-mcp/internal/spectrum"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "cube_load", "cube_flux_at").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads cubes from cache as needed
//  4. Calls the appropriate cube/detect/spectrum function
//  5. Returns the result or error
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Cube Information
	case "cube_load":
		return s.handleCubeLoad(args)
	case "cube_summary":
		return s.handleCubeSummary(args)

	// Point Queries
	case "cube_flux_at":
		return s.handleCubeFluxAt(args)

	// Image Operations
	case "cube_sky_image":
		return s.handleCubeSkyImage(args)
	case "cube_sky_image_integral":
		return s.handleCubeSkyImageIntegral(args)
	case "cube_grid_overlay":
		return s.handleCubeGridOverlay(args)

	// Analysis Operations
	case "cube_find_sources":
		return s.handleCubeFindSources(args)
	case "cube_spectrum":
		return s.handleCubeSpectrum(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Cube Information Handlers ===

type cubeLoadArgs struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

func (s *Server) handleCubeLoad(args json.RawMessage) (interface{}, error) {
	var a cubeLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return fits.LoadCubeInfo(s.cache, a.Path, a.Format)
}

// CubeSummaryResult carries the human-readable description of a cube.
type CubeSummaryResult struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

func (s *Server) handleCubeSummary(args json.RawMessage) (interface{}, error) {
	var a cubeLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sc, err := s.cache.Load(a.Path, a.Format)
	if err != nil {
		return nil, err
	}
	return &CubeSummaryResult{Name: sc.Name, Summary: sc.String()}, nil
}

// === Point Query Handlers ===

type cubeFluxAtArgs struct {
	Path   string  `json:"path"`
	Format string  `json:"format"`
	Lon    float64 `json:"lon"`
	Lat    float64 `json:"lat"`
	Energy float64 `json:"energy"`
}

// FluxAtResult is the interpolated cube value at one sky position and energy.
type FluxAtResult struct {
	Lon        float64 `json:"lon"`
	Lat        float64 `json:"lat"`
	Energy     float64 `json:"energy"`
	EnergyUnit string  `json:"energy_unit"`
	Flux       float64 `json:"flux"`
	Unit       string  `json:"unit"`
}

func (s *Server) handleCubeFluxAt(args json.RawMessage) (interface{}, error) {
	var a cubeFluxAtArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sc, err := s.cache.Load(a.Path, a.Format)
	if err != nil {
		return nil, err
	}
	flux, err := sc.FluxAt(a.Lon, a.Lat, a.Energy)
	if err != nil {
		return nil, err
	}
	return &FluxAtResult{
		Lon:        a.Lon,
		Lat:        a.Lat,
		Energy:     a.Energy,
		EnergyUnit: sc.Geom.Axis.Unit,
		Flux:       flux,
		Unit:       sc.Unit,
	}, nil
}

// === Image Operation Handlers ===

// SkyImageResult pairs a rendered map with its physical metadata.
type SkyImageResult struct {
	Name  string          `json:"name"`
	Unit  string          `json:"unit"`
	Stats cube.ImageStats `json:"stats"`
	Image *render.Result  `json:"image"`
}

type cubeSkyImageArgs struct {
	Path        string  `json:"path"`
	Format      string  `json:"format"`
	Energy      float64 `json:"energy"`
	SmoothSigma float64 `json:"smooth_sigma"`
	Colormap    string  `json:"colormap"`
	Stretch     string  `json:"stretch"`
	Scale       float64 `json:"scale"`
}

func (s *Server) handleCubeSkyImage(args json.RawMessage) (interface{}, error) {
	var a cubeSkyImageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sc, err := s.cache.Load(a.Path, a.Format)
	if err != nil {
		return nil, err
	}
	img, err := sc.SkyImageAt(a.Energy)
	if err != nil {
		return nil, err
	}
	return renderSkyImage(img, a.SmoothSigma, render.Options{
		Colormap: a.Colormap,
		Stretch:  a.Stretch,
		Scale:    a.Scale,
	})
}

type cubeSkyImageIntegralArgs struct {
	Path        string  `json:"path"`
	Format      string  `json:"format"`
	EMin        float64 `json:"e_min"`
	EMax        float64 `json:"e_max"`
	SmoothSigma float64 `json:"smooth_sigma"`
	Colormap    string  `json:"colormap"`
	Stretch     string  `json:"stretch"`
	Scale       float64 `json:"scale"`
}

func (s *Server) handleCubeSkyImageIntegral(args json.RawMessage) (interface{}, error) {
	var a cubeSkyImageIntegralArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sc, err := s.cache.Load(a.Path, a.Format)
	if err != nil {
		return nil, err
	}
	if a.EMin == 0 {
		a.EMin = sc.Geom.Axis.EMin()
	}
	if a.EMax == 0 {
		a.EMax = sc.Geom.Axis.EMax()
	}
	img, err := sc.SkyImageIntegral(a.EMin, a.EMax)
	if err != nil {
		return nil, err
	}
	return renderSkyImage(img, a.SmoothSigma, render.Options{
		Colormap: a.Colormap,
		Stretch:  a.Stretch,
		Scale:    a.Scale,
	})
}

// renderSkyImage optionally smooths a map in data space, then renders it.
func renderSkyImage(img *cube.SkyImage, smoothSigma float64, opts render.Options) (*SkyImageResult, error) {
	if smoothSigma > 0 {
		img = img.Smooth(smoothSigma)
	}
	res, err := img.Render(opts)
	if err != nil {
		return nil, err
	}
	return &SkyImageResult{
		Name:  img.Name,
		Unit:  img.Unit,
		Stats: img.Stats(),
		Image: res,
	}, nil
}

type cubeGridOverlayArgs struct {
	Path       string  `json:"path"`
	Format     string  `json:"format"`
	Energy     float64 `json:"energy"`
	SpacingDeg float64 `json:"spacing_deg"`
	ShowLabels *bool   `json:"show_labels"`
	Colormap   string  `json:"colormap"`
	Stretch    string  `json:"stretch"`
}

func (s *Server) handleCubeGridOverlay(args json.RawMessage) (interface{}, error) {
	var a cubeGridOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.SpacingDeg == 0 {
		a.SpacingDeg = 5
	}
	showLabels := true
	if a.ShowLabels != nil {
		showLabels = *a.ShowLabels
	}
	sc, err := s.cache.Load(a.Path, a.Format)
	if err != nil {
		return nil, err
	}
	img, err := sc.SkyImageAt(a.Energy)
	if err != nil {
		return nil, err
	}
	return render.GridOverlay(img.Data, img.Geom, a.SpacingDeg, showLabels, render.Options{
		Colormap: a.Colormap,
		Stretch:  a.Stretch,
	})
}

// === Analysis Operation Handlers ===

type cubeFindSourcesArgs struct {
	Path          string  `json:"path"`
	Format        string  `json:"format"`
	EMin          float64 `json:"e_min"`
	EMax          float64 `json:"e_max"`
	Threshold     float64 `json:"threshold"`
	MinSeparation float64 `json:"min_separation"`
}

func (s *Server) handleCubeFindSources(args json.RawMessage) (interface{}, error) {
	var a cubeFindSourcesArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Threshold == 0 {
		a.Threshold = 5
	}
	sc, err := s.cache.Load(a.Path, a.Format)
	if err != nil {
		return nil, err
	}
	if a.EMin == 0 {
		a.EMin = sc.Geom.Axis.EMin()
	}
	if a.EMax == 0 {
		a.EMax = sc.Geom.Axis.EMax()
	}
	img, err := sc.SkyImageIntegral(a.EMin, a.EMax)
	if err != nil {
		return nil, err
	}
	return detect.FindPeaks(img, a.Threshold, a.MinSeparation)
}

type cubeSpectrumArgs struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Region struct {
		Lon    float64 `json:"lon"`
		Lat    float64 `json:"lat"`
		Radius float64 `json:"radius"`
	} `json:"region"`
	// Center is optional; the map center is used when omitted.
	Center *struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"center"`
	MinOffRegions      int     `json:"min_off_regions"`
	LoThresholdPercent float64 `json:"lo_threshold_percent"`
}

func (s *Server) handleCubeSpectrum(args json.RawMessage) (interface{}, error) {
	var a cubeSpectrumArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sc, err := s.cache.Load(a.Path, a.Format)
	if err != nil {
		return nil, err
	}
	centerLon, centerLat := sc.Geom.CenterCoord()
	if a.Center != nil {
		centerLon, centerLat = a.Center.Lon, a.Center.Lat
	}
	ext := &spectrum.Extraction{
		Cube: sc,
		Region: spectrum.CircleRegion{
			Lon:    a.Region.Lon,
			Lat:    a.Region.Lat,
			Radius: a.Region.Radius,
		},
		CenterLon:          centerLon,
		CenterLat:          centerLat,
		MinOffRegions:      a.MinOffRegions,
		LoThresholdPercent: a.LoThresholdPercent,
	}
	return ext.Extract()
}
