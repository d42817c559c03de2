package main

import (
	"Go2FlowID/internal/model"
	"Go2FlowID/internal/ndjson"
	"flag"
	"log"
	"math/rand"
	"net/netip"
	"os"
	"time"

	"github.com/google/gopacket/layers"
)

// protocols are picked with equal weight.
var protocols = []layers.IPProtocol{
	layers.IPProtocolTCP,
	layers.IPProtocolUDP,
	layers.IPProtocolSCTP,
	layers.IPProtocolICMPv4,
}

func main() {
	outputFile := flag.String("o", "records.ndjson", "Output NDJSON file path; '-' writes to stdout")
	recordCount := flag.Int("c", 1000, "Number of records to generate")
	v6Ratio := flag.Float64("v6", 0.2, "Fraction of IPv6 records")
	brokenRatio := flag.Float64("broken", 0.01, "Fraction of records with a missing or invalid field")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	var w *ndjson.Writer
	if *outputFile == "-" {
		w = ndjson.NewWriter(os.Stdout)
	} else {
		var err error
		if w, err = ndjson.Create(*outputFile); err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
	}
	defer w.Close()

	rng := rand.New(rand.NewSource(*seed))
	log.Printf("Generating %d records into %s...", *recordCount, *outputFile)

	for i := 0; i < *recordCount; i++ {
		if (i+1)%100000 == 0 {
			log.Printf("Generated %d records...", i+1)
		}
		rec := randomRecord(rng, rng.Float64() < *v6Ratio)
		if rng.Float64() < *brokenRatio {
			breakRecord(rng, rec)
		}
		if err := w.Emit(rec); err != nil {
			log.Fatalf("Failed to write record: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("Failed to flush output: %v", err)
	}
	log.Printf("Successfully generated %d records.", *recordCount)
}

// randomRecord builds an ECS-shaped flow record.
func randomRecord(rng *rand.Rand, v6 bool) model.Record {
	proto := protocols[rng.Intn(len(protocols))]
	if v6 && proto == layers.IPProtocolICMPv4 {
		proto = layers.IPProtocolICMPv6
	}

	var srcPort, dstPort int
	if proto == layers.IPProtocolICMPv4 || proto == layers.IPProtocolICMPv6 {
		// Type and code go in the port slots.
		srcPort, dstPort = rng.Intn(20), rng.Intn(4)
	} else {
		srcPort, dstPort = rng.Intn(65535-1024)+1024, rng.Intn(1024)
	}

	return model.Record{
		"source":      map[string]interface{}{"ip": randomAddr(rng, v6).String(), "port": srcPort},
		"destination": map[string]interface{}{"ip": randomAddr(rng, v6).String(), "port": dstPort},
		"network": map[string]interface{}{
			"iana_number": int(proto),
			"transport":   proto.String(),
		},
		"@timestamp": time.Unix(0, rng.Int63n(1<<62)).UTC().Format(time.RFC3339Nano),
	}
}

func randomAddr(rng *rand.Rand, v6 bool) netip.Addr {
	if v6 {
		var b [16]byte
		rng.Read(b[:])
		b[0] = 0x20
		return netip.AddrFrom16(b)
	}
	var b [4]byte
	rng.Read(b[:])
	return netip.AddrFrom4(b)
}

// breakRecord drops or corrupts one tuple field.
func breakRecord(rng *rand.Rand, rec model.Record) {
	switch rng.Intn(3) {
	case 0:
		delete(rec["destination"].(map[string]interface{}), "ip")
	case 1:
		rec["source"].(map[string]interface{})["ip"] = "256.1.1.1"
	default:
		rec["network"].(map[string]interface{})["iana_number"] = "tcp"
	}
}
