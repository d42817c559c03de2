package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// --- API Query Struct ---
type CommunityIDRequest struct {
	SourceIP        string  `json:"source_ip"`
	SourcePort      uint16  `json:"source_port"`
	DestinationIP   string  `json:"destination_ip"`
	DestinationPort uint16  `json:"destination_port"`
	Protocol        uint8   `json:"protocol"`
	Seed            *uint16 `json:"seed,omitempty"`
}

// --- Main Function ---
func main() {
	// Define command-line flags
	mode := flag.String("mode", "api", "Query mode: 'api' to fingerprint a flow via the HTTP API, 'health' to check the gRPC health service.")
	apiURL := flag.String("url", "http://localhost:8080/api/v1/community-id", "HTTP API endpoint.")
	grpcAddr := flag.String("grpc", "localhost:9090", "gRPC server address.")
	srcIP := flag.String("src-ip", "1.2.3.4", "Source address.")
	srcPort := flag.Uint("src-port", 1122, "Source port.")
	dstIP := flag.String("dst-ip", "5.6.7.8", "Destination address.")
	dstPort := flag.Uint("dst-port", 3344, "Destination port.")
	proto := flag.Uint("proto", 6, "IP protocol number.")
	seed := flag.Int("seed", -1, "Seed; negative uses the server's configured seed.")
	flag.Parse()

	log.Printf("Running in '%s' mode.", *mode)

	switch *mode {
	case "api":
		req := CommunityIDRequest{
			SourceIP:        *srcIP,
			SourcePort:      uint16(*srcPort),
			DestinationIP:   *dstIP,
			DestinationPort: uint16(*dstPort),
			Protocol:        uint8(*proto),
		}
		if *seed >= 0 {
			s := uint16(*seed)
			req.Seed = &s
		}
		queryViaAPI(*apiURL, req)
	case "health":
		checkHealth(*grpcAddr)
	default:
		log.Fatalf("Invalid mode: %s. Use 'api' or 'health'.", *mode)
	}
}

// --- API Query Logic ---
func queryViaAPI(apiURL string, reqBody CommunityIDRequest) {
	jsonReqBody, err := json.Marshal(reqBody)
	if err != nil {
		log.Fatalf("Error marshalling request body: %v", err)
	}

	log.Printf("Sending request to %s with body:\n%s\n", apiURL, string(jsonReqBody))

	resp, err := http.Post(apiURL, "application/json", bytes.NewBuffer(jsonReqBody))
	if err != nil {
		log.Fatalf("Error sending request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response body: %v", err)
	}

	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, respBody, "", "  "); err != nil {
		log.Fatalf("Error formatting JSON response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("API returned non-200 status code: %d\nResponse: %s", resp.StatusCode, prettyJSON.String())
	}
	log.Printf("API Response:\n%s\n", prettyJSON.String())
}

// --- gRPC Health Logic ---
func checkHealth(addr string) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("Failed to create gRPC client: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}
	log.Printf("Health status: %s", resp.GetStatus())
}
