// Package main writes a self-signed development certificate for the API
// server. Point tlsCert/tlsKey at the output and realtyctl -ca at the
// certificate.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/realtyhub/realtyhub/internal/certgen"
)

func run(dir, hosts string, validFor time.Duration) (string, string, error) {
	var list []string
	for _, h := range strings.Split(hosts, ",") {
		if h = strings.TrimSpace(h); h != "" {
			list = append(list, h)
		}
	}
	certPEM, keyPEM, err := certgen.GenerateSelfSigned(list, validFor)
	if err != nil {
		return "", "", err
	}
	return certgen.WriteFiles(dir, certPEM, keyPEM)
}

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma-separated DNS names and IPs")
	validFor := flag.Duration("valid", 365*24*time.Hour, "certificate lifetime")
	flag.Parse()

	certPath, keyPath, err := run(*dir, *hosts, *validFor)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("Certificate written to %s\nKey written to %s\n", certPath, keyPath)
}
