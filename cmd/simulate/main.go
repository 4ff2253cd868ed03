// Contention simulator. Logs in as a seeded consultant, then hammers the
// booking endpoint from many workers over a deliberately small set of slots
// on a single day, so most requests race for the same (consultant, date,
// start_time). At the end it reports per-operation counts and latencies;
// with the slot guard working, successes never exceed the slot count.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/consultly/consultant-scheduling/internal/config"
	"github.com/consultly/consultant-scheduling/internal/db"
	"github.com/consultly/consultant-scheduling/internal/identity"
)

type SimConfig struct {
	APIBaseURL      string
	Duration        time.Duration
	Workers         int
	BookingRatio    float64
	RescheduleRatio float64
	ReadRatio       float64
	SlotCount       int
	SlotMinutes     int
	Username        string
	Password        string
	PostgresDSN     string
}

// TargetDay is the slot set every worker competes over: one consultant, one
// date, SlotCount back-to-back start times.
type TargetDay struct {
	Consultant string
	Date       string // YYYY-MM-DD
	Starts     []string

	mu     sync.RWMutex
	booked []string // appointment IDs created during the run
}

func (t *TargetDay) AddBooked(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.booked = append(t.booked, id)
}

func (t *TargetDay) RandomBooked(rng *rand.Rand) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.booked) == 0 {
		return "", false
	}
	return t.booked[rng.Intn(len(t.booked))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, success, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.latencies = append(om.latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, pct int) int {
	idx := n * pct / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Booking    OperationMetrics
	Reschedule OperationMetrics
	FreeSlots  OperationMetrics
	ReadByID   OperationMetrics
}

type Simulator struct {
	config  SimConfig
	target  *TargetDay
	client  *http.Client
	token   string
	metrics Metrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d slots=%d booking=%.2f reschedule=%.2f read=%.2f",
		cfg.Duration, cfg.Workers, cfg.SlotCount, cfg.BookingRatio, cfg.RescheduleRatio, cfg.ReadRatio)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.Username == "" {
		pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("connect postgres: %v", err)
		}
		cfg.Username, err = pickConsultant(ctx, pgPool)
		pgPool.Close()
		if err != nil {
			log.Fatalf("pick consultant: %v", err)
		}
	}

	sim := &Simulator{
		config: cfg,
		target: buildTargetDay(cfg),
		client: &http.Client{Timeout: 10 * time.Second},
	}

	if err := sim.login(ctx); err != nil {
		log.Fatalf("login as %q: %v", cfg.Username, err)
	}

	log.Printf("target: consultant=%q date=%s slots=%v",
		sim.target.Consultant, sim.target.Date, sim.target.Starts)

	sim.Run()
	sim.PrintReport()
}

func loadConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	cfg := SimConfig{
		APIBaseURL:      getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:        getDuration("SIM_DURATION", 30*time.Second),
		Workers:         getInt("SIM_WORKERS", 10),
		BookingRatio:    getFloat("SIM_BOOKING_RATIO", 0.5),
		RescheduleRatio: getFloat("SIM_RESCHEDULE_RATIO", 0.2),
		ReadRatio:       getFloat("SIM_READ_RATIO", 0.3),
		SlotCount:       getInt("SIM_SLOT_COUNT", 8),
		SlotMinutes:     getInt("SIM_SLOT_MINUTES", 60),
		Username:        os.Getenv("SIM_USERNAME"),
		Password:        getEnv("SIM_PASSWORD", "password123"),
		PostgresDSN:     baseCfg.PostgresDSN,
	}

	total := cfg.BookingRatio + cfg.RescheduleRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.RescheduleRatio /= total
		cfg.ReadRatio /= total
	}

	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Username == "" && cfg.PostgresDSN == "" {
		return fmt.Errorf("set SIM_USERNAME, or POSTGRES_DSN so a seeded consultant can be picked")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.SlotCount <= 0 || cfg.SlotMinutes <= 0 {
		return fmt.Errorf("SIM_SLOT_COUNT and SIM_SLOT_MINUTES must be > 0")
	}
	return nil
}

// pickConsultant grabs any seeded consultant username so the run works
// without SIM_USERNAME being set.
func pickConsultant(ctx context.Context, pool *pgxpool.Pool) (string, error) {
	var name string
	err := pool.QueryRow(ctx, `
		SELECT username FROM users WHERE role = $1 LIMIT 1
	`, string(identity.RoleConsultant)).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("no consultant user found (run cmd/seed first): %w", err)
	}
	return name, nil
}

// buildTargetDay lays out SlotCount back-to-back start times from 09:00 on a
// day two weeks out, far enough ahead that the past-date rule never trips
// mid-run.
func buildTargetDay(cfg SimConfig) *TargetDay {
	day := time.Now().UTC().AddDate(0, 0, 14)

	starts := make([]string, 0, cfg.SlotCount)
	minutes := 9 * 60
	for i := 0; i < cfg.SlotCount; i++ {
		starts = append(starts, fmt.Sprintf("%02d:%02d", minutes/60, minutes%60))
		minutes += cfg.SlotMinutes
	}

	return &TargetDay{
		Consultant: cfg.Username,
		Date:       day.Format("2006-01-02"),
		Starts:     starts,
	}
}

func (s *Simulator) login(ctx context.Context) error {
	body, _ := json.Marshal(map[string]string{
		"username": s.config.Username,
		"password": s.config.Password,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return err
	}
	if loginResp.Token == "" {
		return fmt.Errorf("empty token in login response")
	}

	s.token = loginResp.Token

	// Target day must belong to the consultant we authenticated as.
	s.target.Consultant = s.config.Username
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng, workerID)
			case r < s.config.BookingRatio+s.config.RescheduleRatio:
				s.doReschedule(ctx, rng)
			default:
				if rng.Intn(2) == 0 {
					s.doFreeSlots(ctx)
				} else {
					s.doReadByID(ctx, rng)
				}
			}
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand, workerID int) {
	startTime := s.target.Starts[rng.Intn(len(s.target.Starts))]

	reqBody := map[string]any{
		"date":              s.target.Date,
		"start_time":        startTime,
		"duration_min":      s.config.SlotMinutes,
		"location":          "virtual",
		"client_name":       fmt.Sprintf("load-client-%d", workerID),
		"consultant_name":   s.target.Consultant,
		"description":       "contention probe",
		"consultation_type": "video",
		"status":            "scheduled",
	}
	body, _ := json.Marshal(reqBody)

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "POST", s.config.APIBaseURL+"/appointments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		func() {
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusCreated:
				success = true
				var created struct {
					Appointment struct {
						ID string `json:"id"`
					} `json:"appointment"`
				}
				if json.NewDecoder(resp.Body).Decode(&created) == nil && created.Appointment.ID != "" {
					s.target.AddBooked(created.Appointment.ID)
				}
			case http.StatusConflict:
				conflict = true
			}
		}()
	}

	s.metrics.Booking.Record(latency, success, conflict)
}

func (s *Simulator) doReschedule(ctx context.Context, rng *rand.Rand) {
	id, ok := s.target.RandomBooked(rng)
	if !ok {
		return
	}

	startTime := s.target.Starts[rng.Intn(len(s.target.Starts))]
	body, _ := json.Marshal(map[string]string{
		"date":       s.target.Date,
		"start_time": startTime,
	})

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "POST",
		fmt.Sprintf("%s/appointments/%s/reschedule", s.config.APIBaseURL, id), bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	conflict := false

	if err == nil {
		resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK:
			success = true
		case http.StatusConflict:
			conflict = true
		}
	}

	s.metrics.Reschedule.Record(latency, success, conflict)
}

func (s *Simulator) doFreeSlots(ctx context.Context) {
	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/consultants/%s/slots?date=%s",
			s.config.APIBaseURL, url.PathEscape(s.target.Consultant), s.target.Date), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.FreeSlots.Record(latency, success, false)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	id, ok := s.target.RandomBooked(rng)
	if !ok {
		return
	}

	start := time.Now()

	req, _ := http.NewRequestWithContext(ctx, "GET",
		fmt.Sprintf("%s/appointments/%s", s.config.APIBaseURL, id), nil)

	resp, err := s.client.Do(req)
	latency := time.Since(start)

	success := false
	if err == nil {
		resp.Body.Close()
		success = resp.StatusCode == http.StatusOK
	}

	s.metrics.ReadByID.Record(latency, success, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Consultant: %s  Date: %s  Slots: %d\n",
		s.target.Consultant, s.target.Date, len(s.target.Starts))
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Reschedule", &s.metrics.Reschedule)
	printOperationReport("Free slots", &s.metrics.FreeSlots)
	printOperationReport("Read by ID", &s.metrics.ReadByID)

	// The whole point of the exercise: successful bookings can never exceed
	// the number of distinct slots on the target day.
	booked := atomic.LoadInt64(&s.metrics.Booking.Success)
	if booked > int64(len(s.target.Starts)) {
		fmt.Printf("!! OVERBOOKED: %d successes for %d slots\n", booked, len(s.target.Starts))
	} else {
		fmt.Printf("Slot guard held: %d/%d slots booked, no double bookings\n", booked, len(s.target.Starts))
	}
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	errCount := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if errCount > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", errCount, float64(errCount)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
