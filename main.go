package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kwv/roofmeasure/roof"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	configFile     = flag.String("config", "config.yaml", "Path to configuration file")
	footprintMode  = flag.Bool("footprint", false, "Select a building footprint near --lng/--lat and exit")
	lng            = flag.Float64("lng", 0, "Longitude for --footprint mode")
	lat            = flag.Float64("lat", 0, "Latitude for --footprint mode")
	bundleFile     = flag.String("bundle", "", "Path to a MeasurementBundle JSON file to validate")
	evidenceFile   = flag.String("evidence", "", "Path to an EvidenceBundle JSON file to calibrate ridges from")
	footprintFile  = flag.String("footprint-file", "", "Path to a footprint ring GeoJSON Polygon, used with --evidence")
	overlayAIFile  = flag.String("overlay-ai", "", "Path to AI-feature JSON, used with --overlay-traces")
	overlayTraceFile = flag.String("overlay-traces", "", "Path to user-trace JSON, used with --overlay-ai")
)

func main() {
	flag.Parse()
	log.SetFlags(0)
	fmt.Printf("roofmeasure version: %s\n", Version)

	switch {
	case *footprintMode:
		runFootprint()
	case *bundleFile != "":
		runValidate()
	case *evidenceFile != "":
		runCalibrate()
	case *overlayAIFile != "" && *overlayTraceFile != "":
		runOverlay()
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func runFootprint() {
	cfg, err := roof.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	result, failure := roof.SelectFootprint(context.Background(), *lng, *lat, cfg.Mapbox.AccessToken, cfg.FootprintOptionsFromConfig())
	if failure != nil {
		log.Fatalf("select footprint: %v", failure)
	}
	printJSON(result)
}

func runValidate() {
	data, err := os.ReadFile(*bundleFile)
	if err != nil {
		log.Fatalf("read bundle: %v", err)
	}
	var bundle roof.MeasurementBundle
	if err := json.Unmarshal(data, &bundle); err != nil {
		log.Fatalf("parse bundle: %v", err)
	}
	printJSON(roof.ValidateMeasurements(bundle))
}

// evidenceFileShape mirrors EvidenceBundle but with WKT-encoded manual
// traces, since WKT is this pipeline's plain-text wire format (spec §6).
// It has no DSM field, so --evidence mode never supplies DSM evidence.
type evidenceFileShape struct {
	ManualTraces  []string             `json:"manual_traces"`
	SolarSegments []roof.SolarSegment  `json:"solar_segments"`
	AIVision      []roof.AIVisionHint  `json:"ai_vision"`
	Skeleton      bool                 `json:"skeleton"`
}

func runCalibrate() {
	footprintData, err := os.ReadFile(*footprintFile)
	if err != nil {
		log.Fatalf("read footprint: %v", err)
	}
	var footprintGeom roof.Geometry
	if err := json.Unmarshal(footprintData, &footprintGeom); err != nil {
		log.Fatalf("parse footprint: %v", err)
	}
	footprint, err := roof.DecodeRingGeoJSON(&footprintGeom)
	if err != nil {
		log.Fatalf("decode footprint: %v", err)
	}

	evidenceData, err := os.ReadFile(*evidenceFile)
	if err != nil {
		log.Fatalf("read evidence: %v", err)
	}
	var raw evidenceFileShape
	if err := json.Unmarshal(evidenceData, &raw); err != nil {
		log.Fatalf("parse evidence: %v", err)
	}

	evidence := roof.EvidenceBundle{
		SolarSegments: raw.SolarSegments,
		AIVision:      raw.AIVision,
		Skeleton:      raw.Skeleton,
	}
	for _, wkt := range raw.ManualTraces {
		line, err := roof.ParseLineStringWKT(wkt)
		if err != nil {
			log.Fatalf("parse manual trace: %v", err)
		}
		evidence.ManualTraces = append(evidence.ManualTraces, line)
	}

	printJSON(roof.CalibrateRidges(footprint, evidence))
}

func runOverlay() {
	aiData, err := os.ReadFile(*overlayAIFile)
	if err != nil {
		log.Fatalf("read overlay ai features: %v", err)
	}
	var aiFeatures []roof.LinearFeature
	if err := json.Unmarshal(aiData, &aiFeatures); err != nil {
		log.Fatalf("parse overlay ai features: %v", err)
	}

	traceData, err := os.ReadFile(*overlayTraceFile)
	if err != nil {
		log.Fatalf("read overlay traces: %v", err)
	}
	var traces []roof.UserTrace
	if err := json.Unmarshal(traceData, &traces); err != nil {
		log.Fatalf("parse overlay traces: %v", err)
	}

	printJSON(roof.EvaluateOverlay(aiFeatures, traces))
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encode output: %v", err)
	}
}
