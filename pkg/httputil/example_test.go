package httputil_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/wonny/loanqa/pkg/config"
	"github.com/wonny/loanqa/pkg/httputil"
	"github.com/wonny/loanqa/pkg/logger"
)

// Example_download demonstrates fetching a source file through the SSOT client
func Example_download() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "F10Q10000001|201001|100000.00")
	}))
	defer server.Close()

	cfg := &config.Config{
		Env:      "production",
		LogLevel: "info",
	}
	log := logger.New(cfg)

	// 2 requests per second, 5 retries starting at 500ms
	client := httputil.New(cfg, log).
		WithRateLimit(2).
		WithRetry(5, 500*time.Millisecond)

	n, err := client.Download(context.Background(), server.URL+"/sample_svcg.txt", os.Stdout)
	if err != nil {
		fmt.Printf("Download failed: %v\n", err)
		return
	}
	fmt.Printf("%d bytes\n", n)
}
