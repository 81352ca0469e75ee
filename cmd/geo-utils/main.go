package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dpup/fieldgeo/server/internal/lib/geo"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "point-distance":
		handlePointDistance(args)
	case "path-distance":
		handlePathDistance(args)
	case "encode":
		handleEncode(args)
	case "decode":
		handleDecode(args)
	case "simplify":
		handleSimplify(args)
	case "optimize":
		handleOptimize(args)
	case "measure":
		handleMeasure(args)
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handlePointDistance(args []string) {
	fs := flag.NewFlagSet("point-distance", flag.ExitOnError)
	lat1 := fs.Float64("lat1", 0, "Latitude of first point")
	lng1 := fs.Float64("lng1", 0, "Longitude of first point")
	lat2 := fs.Float64("lat2", 0, "Latitude of second point")
	lng2 := fs.Float64("lng2", 0, "Longitude of second point")

	fs.Parse(args)

	if *lat1 == 0 && *lng1 == 0 && *lat2 == 0 && *lng2 == 0 {
		fmt.Println("Example usage:")
		fmt.Println("  geo-utils point-distance --lat1 38.0675 --lng1 -120.5436 --lat2 38.1391 --lng2 -120.4561")
		fmt.Println("  (Distance between Angels Camp and Murphys)")
		os.Exit(1)
	}

	p1, err := geo.NewPoint(*lat1, *lng1)
	if err != nil {
		log.Fatalf("Invalid first point: %v", err)
	}
	p2, err := geo.NewPoint(*lat2, *lng2)
	if err != nil {
		log.Fatalf("Invalid second point: %v", err)
	}

	distance := geo.Distance(p1, p2)

	fmt.Printf("Distance between points:\n")
	fmt.Printf("  Point 1: (%.6f, %.6f)\n", p1.Latitude, p1.Longitude)
	fmt.Printf("  Point 2: (%.6f, %.6f)\n", p2.Latitude, p2.Longitude)
	fmt.Printf("  Distance: %.2f meters (%s)\n", distance, geo.FormatDistance(distance))
}

func handlePathDistance(args []string) {
	fs := flag.NewFlagSet("path-distance", flag.ExitOnError)
	pointsStr := fs.String("points", "", "Path as \"lat,lng;lat,lng;...\"")
	polylineStr := fs.String("polyline", "", "Path as an encoded polyline")
	lat := fs.Float64("lat", 0, "Optional latitude of a point to measure against the path")
	lng := fs.Float64("lng", 0, "Optional longitude of a point to measure against the path")

	fs.Parse(args)

	if *pointsStr == "" && *polylineStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  geo-utils path-distance --points \"38.0675,-120.5436;38.1391,-120.4561\"")
		fmt.Println("  geo-utils path-distance --polyline \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\" --lat 39.0 --lng -120.5")
		os.Exit(1)
	}

	path := readPath(*pointsStr, *polylineStr)
	distance := geo.PathDistance(path)

	fmt.Printf("Path distance:\n")
	fmt.Printf("  Points: %d\n", len(path))
	fmt.Printf("  Distance: %.2f meters (%s)\n", distance, geo.FormatDistance(distance))

	if *lat != 0 || *lng != 0 {
		point, err := geo.NewPoint(*lat, *lng)
		if err != nil {
			log.Fatalf("Invalid point: %v", err)
		}
		offRoute, err := geo.PointToPath(point, path)
		if err != nil {
			log.Fatalf("Error calculating distance to path: %v", err)
		}
		fmt.Printf("  Point (%.6f, %.6f) is %.2f meters from the path\n", point.Latitude, point.Longitude, offRoute)
	}
}

func handleEncode(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	pointsStr := fs.String("points", "", "Path as \"lat,lng;lat,lng;...\"")
	precision := fs.Int("precision", geo.DefaultPrecision, "Decimal digits kept by the encoding")

	fs.Parse(args)

	if *pointsStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  geo-utils encode --points \"38.5,-120.2;40.7,-120.95;43.252,-126.453\"")
		os.Exit(1)
	}

	points, err := parseCoordinatePairs(*pointsStr)
	if err != nil {
		log.Fatalf("Error parsing points: %v", err)
	}

	encoded, err := geo.Encode(points, *precision)
	if err != nil {
		log.Fatalf("Error encoding path: %v", err)
	}

	fmt.Println(encoded)
}

func handleDecode(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	polylineStr := fs.String("polyline", "", "Encoded polyline string to decode")
	precision := fs.Int("precision", geo.DefaultPrecision, "Decimal digits kept by the encoding")
	verbose := fs.Bool("verbose", false, "Show all decoded points")

	fs.Parse(args)

	if *polylineStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  geo-utils decode --polyline \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\"")
		fmt.Println("  geo-utils decode --polyline \"encoded_string\" --verbose")
		os.Exit(1)
	}

	points, err := geo.Decode(*polylineStr, *precision)
	if err != nil {
		log.Fatalf("Error decoding polyline: %v", err)
	}

	fmt.Printf("Polyline decoded successfully:\n")
	fmt.Printf("  Input: %s\n", *polylineStr)
	fmt.Printf("  Points: %d\n", len(points))
	fmt.Printf("  Distance: %s\n", geo.FormatDistance(geo.PathDistance(points)))

	if len(points) > 0 {
		fmt.Printf("  Start: (%.6f, %.6f)\n", points[0].Latitude, points[0].Longitude)
		if len(points) > 1 {
			fmt.Printf("  End: (%.6f, %.6f)\n", points[len(points)-1].Latitude, points[len(points)-1].Longitude)
		}
	}

	if *verbose {
		printPoints(points)
	}
}

func handleSimplify(args []string) {
	fs := flag.NewFlagSet("simplify", flag.ExitOnError)
	pointsStr := fs.String("points", "", "Path as \"lat,lng;lat,lng;...\"")
	polylineStr := fs.String("polyline", "", "Path as an encoded polyline")
	tolerance := fs.Float64("tolerance", 10, "Tolerance in meters")
	method := fs.String("method", "planar", "Distance method: planar or geodesic")

	fs.Parse(args)

	if *pointsStr == "" && *polylineStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  geo-utils simplify --polyline \"encoded_gps_trace\" --tolerance 10")
		fmt.Println("  geo-utils simplify --points \"38.0,-120.0;38.001,-120.0;38.002,-120.0\" --method geodesic")
		os.Exit(1)
	}

	var distanceFn geo.SegmentDistanceFunc
	switch *method {
	case "planar":
		distanceFn = geo.PlanarDistance
	case "geodesic":
		distanceFn = geo.GeodesicDistance
	default:
		log.Fatalf("Unknown method %q: use planar or geodesic", *method)
	}

	path := readPath(*pointsStr, *polylineStr)
	simplified := geo.SimplifyWith(path, *tolerance, distanceFn)

	encoded, err := geo.Encode(simplified, geo.DefaultPrecision)
	if err != nil {
		log.Fatalf("Error encoding simplified path: %v", err)
	}

	fmt.Printf("Path simplified:\n")
	fmt.Printf("  Tolerance: %.2f meters (%s)\n", *tolerance, *method)
	fmt.Printf("  Points: %d -> %d\n", len(path), len(simplified))
	fmt.Printf("  Distance: %s -> %s\n",
		geo.FormatDistance(geo.PathDistance(path)), geo.FormatDistance(geo.PathDistance(simplified)))
	fmt.Printf("  Encoded: %s\n", encoded)
}

func handleOptimize(args []string) {
	fs := flag.NewFlagSet("optimize", flag.ExitOnError)
	originStr := fs.String("origin", "", "Start as \"lat,lng\"")
	destinationStr := fs.String("destination", "", "End as \"lat,lng\"")
	waypointsStr := fs.String("waypoints", "", "Stops as \"lat,lng;lat,lng;...\"")

	fs.Parse(args)

	if *originStr == "" || *destinationStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  geo-utils optimize --origin \"38.0675,-120.5436\" --destination \"38.0675,-120.5436\" \\")
		fmt.Println("    --waypoints \"38.1391,-120.4561;38.0888,-120.4730;38.2458,-120.3486\"")
		os.Exit(1)
	}

	origin := parseSinglePoint("origin", *originStr)
	destination := parseSinglePoint("destination", *destinationStr)

	var waypoints []geo.Point
	if *waypointsStr != "" {
		var err error
		waypoints, err = parseCoordinatePairs(*waypointsStr)
		if err != nil {
			log.Fatalf("Error parsing waypoints: %v", err)
		}
	}

	order := geo.OptimizeOrderIndices(origin, waypoints)
	optimized := geo.OptimizeOrder(origin, destination, waypoints)

	before := geo.TourDistance(origin, destination, waypoints)
	after := geo.TourDistance(origin, destination, optimized)

	fmt.Printf("Stop order optimized (nearest neighbor):\n")
	fmt.Printf("  Start: (%.6f, %.6f)\n", origin.Latitude, origin.Longitude)
	for i, idx := range order {
		p := waypoints[idx]
		fmt.Printf("  %d: stop #%d (%.6f, %.6f)\n", i+1, idx+1, p.Latitude, p.Longitude)
	}
	fmt.Printf("  End: (%.6f, %.6f)\n", destination.Latitude, destination.Longitude)
	fmt.Printf("  Distance: %s (submitted order: %s)\n", geo.FormatDistance(after), geo.FormatDistance(before))
}

func handleMeasure(args []string) {
	fs := flag.NewFlagSet("measure", flag.ExitOnError)
	polygonStr := fs.String("polygon", "", "Surface vertices as \"lat,lng;lat,lng;...\"")
	simplify := fs.Bool("simplify", false, "Drop vertices closer than --tolerance to their predecessor")
	tolerance := fs.Float64("tolerance", 5, "Vertex tolerance in feet")

	fs.Parse(args)

	if *polygonStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  geo-utils measure --polygon \"38.0675,-120.5436;38.0675,-120.5432514;38.06763736,-120.5432514;38.06763736,-120.5436\"")
		fmt.Println("  (A 100 ft x 50 ft driveway)")
		os.Exit(1)
	}

	polygon, err := parseCoordinatePairs(*polygonStr)
	if err != nil {
		log.Fatalf("Error parsing polygon: %v", err)
	}
	if *simplify {
		polygon = geo.SimplifyPolygon(polygon, *tolerance)
	}

	m, err := geo.Measure(polygon)
	if err != nil {
		log.Fatalf("Unable to compute area, redraw the surface: %v", err)
	}

	fmt.Printf("Surface measurement:\n")
	fmt.Printf("  Vertices: %d\n", len(polygon))
	fmt.Printf("  Area: %.0f sq ft\n", m.AreaSqFt)
	fmt.Printf("  Perimeter: %.0f ft\n", m.PerimeterFt)
	if m.IsRectangular {
		fmt.Printf("  Rectangle: %.0f ft x %.0f ft\n", *m.LengthFt, *m.WidthFt)
	} else {
		fmt.Printf("  Rectangle: no\n")
	}
}

func printUsage() {
	fmt.Printf(`geo-utils - Field geometry tool

USAGE:
    geo-utils <command> [options]

COMMANDS:
    point-distance      Calculate great-circle distance between two points
    path-distance       Calculate the length of a path, or a point's distance to it
    encode              Encode coordinates as a polyline string
    decode              Decode a polyline string to coordinates
    simplify            Reduce a dense path with Douglas-Peucker
    optimize            Order stops with the nearest-neighbor heuristic
    measure             Measure a drawn surface's area and perimeter
    help                Show this help message

EXAMPLES:
    # Distance between Angels Camp and Murphys
    geo-utils point-distance --lat1 38.0675 --lng1 -120.5436 --lat2 38.1391 --lng2 -120.4561

    # Encode and decode a path
    geo-utils encode --points "38.5,-120.2;40.7,-120.95;43.252,-126.453"
    geo-utils decode --polyline "_p~iF~ps|U_ulLnnqC_mqNvxq`+"`@"+`" --verbose

    # Thin a GPS trace to 10 m
    geo-utils simplify --polyline "encoded_trace" --tolerance 10

    # Order a day's stops
    geo-utils optimize --origin "38.0675,-120.5436" --destination "38.0675,-120.5436" --waypoints "38.1391,-120.4561;38.0888,-120.4730"

    # Measure a driveway
    geo-utils measure --polygon "38.0675,-120.5436;38.0675,-120.5432514;38.06763736,-120.5432514;38.06763736,-120.5436"
`)
}

// readPath loads a path from either a coordinate list or an encoded polyline
func readPath(pointsStr, polylineStr string) []geo.Point {
	if polylineStr != "" {
		points, err := geo.Decode(polylineStr, geo.DefaultPrecision)
		if err != nil {
			log.Fatalf("Error decoding polyline: %v", err)
		}
		return points
	}

	points, err := parseCoordinatePairs(pointsStr)
	if err != nil {
		log.Fatalf("Error parsing points: %v", err)
	}
	return points
}

func parseSinglePoint(name, s string) geo.Point {
	points, err := parseCoordinatePairs(s)
	if err != nil {
		log.Fatalf("Error parsing %s: %v", name, err)
	}
	if len(points) != 1 {
		log.Fatalf("Expected a single %s, got %d points", name, len(points))
	}
	return points[0]
}

func printPoints(points []geo.Point) {
	fmt.Printf("  All points:\n")
	for i, point := range points {
		fmt.Printf("    %d: (%.6f, %.6f)\n", i+1, point.Latitude, point.Longitude)
	}
}

// parseCoordinatePairs parses "lat,lng;lat,lng" into validated points
func parseCoordinatePairs(coordStr string) ([]geo.Point, error) {
	if coordStr == "" {
		return nil, fmt.Errorf("empty coordinate string")
	}

	pairs := strings.Split(coordStr, ";")
	points := make([]geo.Point, 0, len(pairs))

	for _, pair := range pairs {
		coords := strings.Split(strings.TrimSpace(pair), ",")
		if len(coords) != 2 {
			return nil, fmt.Errorf("invalid coordinate pair: %s", pair)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude: %s", coords[0])
		}

		lng, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude: %s", coords[1])
		}

		point, err := geo.NewPoint(lat, lng)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate pair %s: %w", pair, err)
		}
		points = append(points, point)
	}

	return points, nil
}
