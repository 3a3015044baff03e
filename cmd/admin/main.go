package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"urbandept/backend/internal/auth"
	"urbandept/backend/internal/complaint"
	"urbandept/backend/internal/config"
	"urbandept/backend/internal/models"
	"urbandept/backend/internal/storage"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const usage = `Usage: admin <command> [args]

Commands:
  issue-token [department] [ttl_hours]                   mint a service token
  show <complaint_id>                                    print a complaint
  set-status <request_id> <status> [remarks] [officer]   apply a status update`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	command := os.Args[1]
	switch command {
	case "issue-token":
		department := cfg.Department
		if len(os.Args) > 2 {
			department = os.Args[2]
		}
		ttl := 24
		if len(os.Args) > 3 {
			ttl, err = strconv.Atoi(os.Args[3])
			if err != nil {
				fmt.Println("Invalid ttl. Please provide an integer number of hours.")
				os.Exit(1)
			}
		}
		token, err := auth.NewIssuer(cfg.ServiceJWTSecret).Issue(department, time.Duration(ttl)*time.Hour)
		if err != nil {
			log.Fatalf("Error issuing token: %v", err)
		}
		fmt.Println(token)
	case "show":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin show <complaint_id>")
			os.Exit(1)
		}
		c, err := newService(cfg).ByID(context.Background(), os.Args[2])
		if err != nil {
			log.Fatalf("Error loading complaint: %v", err)
		}
		printJSON(c)
	case "set-status":
		if len(os.Args) < 4 {
			fmt.Println("Usage: admin set-status <request_id> <status> [remarks] [processed_by]")
			os.Exit(1)
		}
		c, err := setStatus(newService(cfg), os.Args[2], os.Args[3], os.Args[4:])
		if err != nil {
			log.Fatalf("Error updating complaint: %v", err)
		}
		fmt.Printf("Complaint %s is now %s.\n", c.ID, c.Status)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

func newService(cfg *config.Config) *complaint.Service {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	// No event publishing from the admin CLI.
	return complaint.NewService(storage.NewStorageService(db), complaint.WithDepartment(cfg.Department))
}

func setStatus(svc *complaint.Service, requestID, status string, rest []string) (*models.Complaint, error) {
	upd := complaint.StatusUpdate{
		RequestID: requestID,
		Status:    models.ComplaintStatus(status),
	}
	if !upd.Status.Valid() {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	if len(rest) > 0 {
		upd.Remarks = rest[0]
	}
	if len(rest) > 1 {
		officer := rest[1]
		upd.ProcessedBy = &officer
	}
	return svc.UpdateStatus(context.Background(), upd)
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Error encoding output: %v", err)
	}
	fmt.Println(string(out))
}
