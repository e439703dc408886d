package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-queue/internal/logging"
)

// The simulator talks to a running api-server over HTTP only. It registers a throwaway physician,
// generates today's slots and then has every worker race for the same small pool of slots.
type SimConfig struct {
	APIBaseURL string
	Workers    int
	Attempts   int // booking attempts per worker
	HotSlots   int // how many of the day's slots the workers fight over
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
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
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
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

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type booking struct {
	SlotID      uuid.UUID
	TrackingID  string
	QueueNumber int
}

type Simulator struct {
	config  SimConfig
	client  *http.Client
	log     zerolog.Logger
	slots   []uuid.UUID
	doctor  uuid.UUID
	booking OperationMetrics
	track   OperationMetrics

	mu       sync.Mutex
	bookings []booking
}

func main() {
	_ = godotenv.Load()
	logger := logging.New(os.Getenv("LOG_LEVEL"), os.Getenv("APP_ENV"), "simulate")

	cfg := SimConfig{
		APIBaseURL: strings.TrimRight(getEnv("SIM_API_BASE_URL", "http://localhost:8080"), "/"),
		Workers:    getInt("SIM_WORKERS", 20),
		Attempts:   getInt("SIM_ATTEMPTS", 10),
		HotSlots:   getInt("SIM_HOT_SLOTS", 5),
	}
	if cfg.Workers <= 0 || cfg.Attempts <= 0 || cfg.HotSlots <= 0 {
		logger.Fatal().Msg("SIM_WORKERS, SIM_ATTEMPTS and SIM_HOT_SLOTS must be > 0")
	}

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		log:    logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := sim.prepare(ctx); err != nil {
		logger.Fatal().Err(err).Msg("prepare simulation")
	}
	logger.Info().
		Str("physician_id", sim.doctor.String()).
		Int("hot_slots", len(sim.slots)).
		Int("workers", cfg.Workers).
		Int("attempts", cfg.Attempts).
		Msg("starting simulation")

	sim.Run(ctx)
	sim.PrintReport()

	if violations := sim.Verify(); len(violations) > 0 {
		for _, v := range violations {
			logger.Error().Msg(v)
		}
		os.Exit(1)
	}
	logger.Info().Msg("exclusivity and queue numbering verified")
}

func (s *Simulator) prepare(ctx context.Context) error {
	faker := gofakeit.New(0)

	var physician struct {
		ID uuid.UUID `json:"id"`
	}
	status, err := s.doJSON(ctx, http.MethodPost, "/physicians", map[string]any{
		"name":           "Dr. " + faker.Name(),
		"specialization": "General Practice",
		"email":          fmt.Sprintf("sim-%s@clinic.test", uuid.NewString()[:8]),
	}, &physician)
	if err != nil {
		return fmt.Errorf("register physician: %w", err)
	}
	if status != http.StatusCreated {
		return fmt.Errorf("register physician: unexpected status %d", status)
	}
	s.doctor = physician.ID

	today := time.Now().Format("2006-01-02")
	if _, err := s.doJSON(ctx, http.MethodPost, "/physicians/"+s.doctor.String()+"/slots",
		map[string]string{"date": today}, nil); err != nil {
		return fmt.Errorf("generate slots: %w", err)
	}

	var free struct {
		Slots []struct {
			SlotID uuid.UUID `json:"slot_id"`
		} `json:"slots"`
	}
	if _, err := s.doJSON(ctx, http.MethodGet, "/physicians/"+s.doctor.String()+"/slots?date="+today, nil, &free); err != nil {
		return fmt.Errorf("list slots: %w", err)
	}
	if len(free.Slots) == 0 {
		return fmt.Errorf("no free slots for %s", today)
	}
	for i := 0; i < len(free.Slots) && i < s.config.HotSlots; i++ {
		s.slots = append(s.slots, free.Slots[i].SlotID)
	}
	return nil
}

func (s *Simulator) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx)
		}()
	}
	wg.Wait()

	for _, b := range s.bookings {
		s.doTrack(ctx, b.TrackingID)
	}
	s.log.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context) {
	faker := gofakeit.New(0)
	for i := 0; i < s.config.Attempts; i++ {
		if ctx.Err() != nil {
			return
		}
		s.doBooking(ctx, faker)
	}
}

func (s *Simulator) doBooking(ctx context.Context, faker *gofakeit.Faker) {
	slotID := s.slots[faker.Number(0, len(s.slots)-1)]
	age := faker.Number(1, 95)

	var resp struct {
		TrackingID  string `json:"tracking_id"`
		QueueNumber int    `json:"queue_number"`
	}
	start := time.Now()
	status, err := s.doJSON(ctx, http.MethodPost, "/physicians/"+s.doctor.String()+"/bookings", map[string]any{
		"slot_id": slotID.String(),
		"patient": map[string]any{
			"name":  faker.Name(),
			"age":   age,
			"email": faker.Email(),
			"phone": faker.Phone(),
		},
	}, &resp)
	latency := time.Since(start)

	success := err == nil && status == http.StatusCreated
	conflict := err == nil && status == http.StatusConflict
	if err != nil {
		s.log.Debug().Err(err).Msg("booking request failed")
	}
	if success {
		s.mu.Lock()
		s.bookings = append(s.bookings, booking{SlotID: slotID, TrackingID: resp.TrackingID, QueueNumber: resp.QueueNumber})
		s.mu.Unlock()
	}
	s.booking.Record(latency, success, conflict)
}

func (s *Simulator) doTrack(ctx context.Context, trackingID string) {
	start := time.Now()
	status, err := s.doJSON(ctx, http.MethodGet, "/appointments/"+trackingID, nil, nil)
	s.track.Record(time.Since(start), err == nil && status == http.StatusOK, false)
}

// Verify checks what the engine guarantees: one booking per slot and queue numbers 1..n with no
// gaps or repeats.
func (s *Simulator) Verify() []string {
	var violations []string

	perSlot := make(map[uuid.UUID]int)
	numbers := make([]int, 0, len(s.bookings))
	for _, b := range s.bookings {
		perSlot[b.SlotID]++
		numbers = append(numbers, b.QueueNumber)
	}
	for slotID, n := range perSlot {
		if n > 1 {
			violations = append(violations, fmt.Sprintf("slot %s booked %d times", slotID, n))
		}
	}

	sort.Ints(numbers)
	for i, n := range numbers {
		if n != i+1 {
			violations = append(violations, fmt.Sprintf("queue numbers not contiguous: %v", numbers))
			break
		}
	}
	return violations
}

func (s *Simulator) doJSON(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Workers: %d  Attempts/worker: %d  Hot slots: %d\n", s.config.Workers, s.config.Attempts, len(s.slots))
	fmt.Println()

	printOperationReport("Booking", &s.booking)
	printOperationReport("Tracking", &s.track)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
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

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
