package main

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"

	"github.com/smbevo/evolve/internal/api"
	"github.com/smbevo/evolve/internal/middleware"
	"github.com/smbevo/evolve/internal/services"
	"github.com/smbevo/evolve/internal/utils"
)

func main() {
	addr := utils.SafeEnv("EVOLVE_ADDR", ":8080")
	commit := os.Getenv("EVOLVE_COMMIT")
	buildTime := os.Getenv("EVOLVE_BUILD_TIME")

	store, closeStore, err := openStore()
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	if closeStore != nil {
		defer func() {
			if cerr := closeStore(); cerr != nil {
				log.Printf("close store: %v", cerr)
			}
		}()
	}

	mux := http.NewServeMux()
	api.NewRouter(store, buildVerifier()).Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":         true,
			"name":       "Evolve API",
			"phase":      middleware.PhaseFromContext(r.Context()),
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"commit":     commit,
			"build_time": buildTime,
		})
	})

	// Frontend serving strategy (priority):
	// 1) Static files if EVOLVE_STATIC_DIR is set (fullstack image)
	// 2) Dev proxy if EVOLVE_DEV_FRONTEND_URL is set (proxy / to Vite dev)
	if staticDir := os.Getenv("EVOLVE_STATIC_DIR"); staticDir != "" {
		fs := http.FileServer(http.Dir(staticDir))
		mux.Handle("/", fs)
	} else if devURL := os.Getenv("EVOLVE_DEV_FRONTEND_URL"); devURL != "" {
		if u, err := url.Parse(devURL); err == nil {
			rp := httputil.NewSingleHostReverseProxy(u)
			// Ensure no-store headers also apply to proxied responses
			rp.ModifyResponse = func(res *http.Response) error {
				res.Header.Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
				res.Header.Set("Pragma", "no-cache")
				res.Header.Set("Expires", "0")
				return nil
			}
			mux.Handle("/", rp)
		} else {
			log.Printf("invalid EVOLVE_DEV_FRONTEND_URL=%q: %v", devURL, err)
		}
	}

	handler := middleware.CORS(middleware.SecureHeaders(middleware.NoStore(middleware.PhaseMiddleware(mux))))

	log.Printf("Evolve server listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// buildVerifier returns the reCAPTCHA verifier in production. Without a
// secret the server runs in dev mode and accepts every trust token; the
// honeypot, form token and fill-time checks still apply.
func buildVerifier() services.TrustVerifier {
	if secret := os.Getenv("EVOLVE_RECAPTCHA_SECRET"); secret != "" {
		return services.NewRecaptchaVerifier(secret)
	}
	log.Printf("EVOLVE_RECAPTCHA_SECRET not set, trust verification disabled (dev mode)")
	return services.TrustVerifierFunc(func(string) (bool, error) { return true, nil })
}
