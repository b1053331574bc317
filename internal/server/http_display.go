package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                        - Health check")
	fmt.Println("  GET    /stats                         - Server statistics")
	fmt.Println("  POST   /resume                        - Upload resume (student)")
	fmt.Println("  POST   /applications                  - Apply to a job (student)")
	fmt.Println("  GET    /applications                  - List own applications (student)")
	fmt.Println("  POST   /applications/{id}/withdraw    - Withdraw application (student)")
	fmt.Println("  POST   /tests/{id}/events             - Report anti-cheat event (student)")
	fmt.Println("  POST   /tests/{id}/submit             - Submit test round (student)")
	fmt.Println("  POST   /jobs                          - Upsert job posting (HR)")
	fmt.Println("  GET    /jobs/history                  - Per-job application counts (HR)")
	fmt.Println("  GET    /jobs/{id}/candidates          - List candidates for a job (HR)")
	fmt.Println("  DELETE /applications/{id}             - Delete application (HR)")
	fmt.Println("  POST   /applications/{id}/assign-test - Assign first-round test (HR)")
	fmt.Println("  POST   /identity/reconcile            - Reconcile user role")
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
	fmt.Println("Identity headers: X-Subject-Id and X-Subject-Role (STUDENT|HR) required on API requests")
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
		fmt.Println("WARNING: No request size limits configured!")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
		fmt.Println("WARNING: No rate limiting configured!")
	}
}
