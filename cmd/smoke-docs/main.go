package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"nadi.org/internal/artifact"
	"nadi.org/internal/docs"
	"nadi.org/internal/payroll"
	"nadi.org/internal/render"
	"nadi.org/internal/stream"
)

// Runs the full generation pipeline in process against in-memory stores:
// seed one payroll record, generate all three document types, regenerate the
// payslip and verify the supersede invariant held.
func main() {
	src := payroll.NewInMemorySource()
	src.AddRecord(payroll.PayrollRow{
		ID:       "pay-smoke",
		StaffID:  "staff-smoke",
		Month:    3,
		Year:     2026,
		PayDate:  time.Date(2026, time.March, 28, 0, 0, 0, 0, time.UTC),
		BasicPay: 250000,
		EmployeeDeductionsJSON: []byte(
			`[{"id":"d1","name":"EPF","amount":275,"type":"employee","mandatory":true}]`),
	})
	src.AddStaff(payroll.StaffProfile{ID: "staff-smoke", FullName: "Aina Rahim", ICNo: "900101-14-5678"})
	src.AddJob(payroll.StaffJob{
		ID: "job-smoke", StaffID: "staff-smoke", Position: "Site Manager",
		SiteName: "NADI Kg Baru", OrganizationName: "Harmoni Tech", Active: true,
	})

	meta := artifact.NewMemoryMetadata()
	svc := docs.NewService(
		payroll.NewAggregator(src),
		render.New(),
		artifact.NewStore(artifact.NewMemoryObjects(), meta),
		stream.New(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	first, err := svc.GeneratePayslip(ctx, "pay-smoke")
	if err != nil {
		log.Fatalf("payslip: %v", err)
	}
	if _, err := svc.GenerateSalaryCertificate(ctx, "pay-smoke"); err != nil {
		log.Fatalf("certificate: %v", err)
	}
	if _, err := svc.GenerateAnnualStatement(ctx, "pay-smoke", 2026); err != nil {
		log.Fatalf("statement: %v", err)
	}

	second, err := svc.GeneratePayslip(ctx, "pay-smoke")
	if err != nil {
		log.Fatalf("payslip regeneration: %v", err)
	}

	current, err := meta.ListCurrent(ctx, "pay-smoke")
	if err != nil {
		log.Fatalf("list current: %v", err)
	}
	if len(current) != 3 {
		log.Fatalf("expected 3 current artifacts, got %d", len(current))
	}
	for _, a := range current {
		if a.DocumentType == render.TypePayslip && a.ID != second.DocumentID {
			log.Fatalf("payslip supersede failed: current=%s want=%s", a.ID, second.DocumentID)
		}
	}
	old, err := meta.ByID(ctx, first.DocumentID)
	if err != nil {
		log.Fatalf("superseded artifact lost: %v", err)
	}
	if old.IsCurrent {
		log.Fatal("superseded payslip still marked current")
	}

	fmt.Printf("✅ document pipeline smoke test passed: %d bytes at %s\n", second.FileSize, second.FilePath)
}
