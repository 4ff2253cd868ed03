package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/consultly/consultant-scheduling/internal/db"
	"github.com/consultly/consultant-scheduling/internal/identity"
	"github.com/consultly/consultant-scheduling/internal/schedule"
)

// Every seeded user logs in with this password.
const seedPassword = "password123"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	consultants, err := seedUsers(context.Background(), pool, identity.RoleConsultant, 10)
	if err != nil {
		log.Fatalf("seed consultants: %v", err)
	}
	clients, err := seedUsers(context.Background(), pool, identity.RoleClient, 50)
	if err != nil {
		log.Fatalf("seed clients: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, consultants, clients); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, role identity.Role, count int) ([]string, error) {
	log.Printf("seeding %d %s users", count, role)

	hash, err := identity.HashPassword(seedPassword)
	if err != nil {
		return nil, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	names := make([]string, 0, count)
	for i := 0; i < count; i++ {
		name := gofakeit.Name()

		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, username, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
			ON CONFLICT (username) DO NOTHING
		`, uuid.New(), name, hash, role)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Printf("%s users seeded", role)
	return names, nil
}

// seedAppointments books a handful of slots per consultant over the next
// week, leaving gaps so the free-slot endpoint has something to report.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, consultants, clients []string) error {
	log.Printf("seeding appointments for %d consultants", len(consultants))

	repo := schedule.NewPgRepository(pool)

	starts := []schedule.TimeOfDay{
		schedule.NewTimeOfDay(9, 0),
		schedule.NewTimeOfDay(11, 0),
		schedule.NewTimeOfDay(14, 0),
	}
	durations := []int{30, 60, 90}
	types := []schedule.ConsultationType{schedule.TypeInPerson, schedule.TypePhone, schedule.TypeVideo}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	total := 0
	for _, consultant := range consultants {
		for day := 1; day <= 5; day++ {
			date := today.AddDate(0, 0, day)
			for i, start := range starts {
				if gofakeit.Bool() {
					continue // leave this slot free
				}

				a := &schedule.Appointment{
					ID:             uuid.NewString(),
					Date:           date,
					StartTime:      start,
					Duration:       durations[i%len(durations)],
					Location:       gofakeit.Company() + " office",
					ClientName:     clients[gofakeit.Number(0, len(clients)-1)],
					ConsultantName: consultant,
					Description:    gofakeit.BuzzWord() + " consultation",
					Type:           types[gofakeit.Number(0, len(types)-1)],
					Status:         schedule.StatusScheduled,
				}

				if _, err := repo.Save(ctx, a); err != nil {
					if errors.Is(err, schedule.ErrTimeSlotTaken) {
						continue
					}
					return err
				}
				total++
			}
		}
	}

	log.Printf("appointments seeded: %d", total)
	return nil
}
