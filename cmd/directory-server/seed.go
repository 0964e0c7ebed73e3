package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yashdugar0209-creator/healthkey-sub000/internal/config"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/audit"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/card"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/identity"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/domain/records"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/auth"
	"github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/db"
	redisclient "github.com/yashdugar0209-creator/healthkey-sub000/internal/platform/redis"
)

var bloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

var specializations = []string{
	"General Medicine", "Cardiology", "Orthopedics", "Pediatrics",
	"Neurology", "Dermatology", "Emergency Medicine",
}

// runSeed fills the directory with generated demo data: one admin account,
// an approved hospital and doctor, and the requested number of patients with
// cards and a short history each.
func runSeed(patientCount int) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)
	if cfg.IsProduction() {
		return fmt.Errorf("refusing to seed a production database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	txRunner := db.NewTxRunner(pool)
	tokens := auth.NewTokenIssuer(jwtSecret(cfg), cfg.JWTTTL)

	auditSvc := audit.NewService(audit.NewRepoPG(pool))
	userRepo := identity.NewUserRepoPG(pool)
	identitySvc := identity.NewService(
		userRepo,
		identity.NewPatientRepoPG(pool),
		identity.NewDoctorRepoPG(pool),
		identity.NewHospitalRepoPG(pool),
		tokens,
		auditSvc,
		txRunner,
	)
	recordsSvc := records.NewService(records.NewRepoPG(pool), identitySvc, auditSvc)
	cardSvc := card.NewService(card.NewRepoPG(pool), identitySvc, redisclient.NoopLocker{}, auditSvc, txRunner)

	faker := gofakeit.New(0)

	adminID, err := seedAdmin(ctx, userRepo)
	if err != nil {
		return err
	}

	hospitalName := faker.Company() + " Hospital"
	hospital, err := identitySvc.RegisterHospital(ctx, identity.RegisterHospitalInput{
		Name:           hospitalName,
		Email:          faker.Email(),
		Password:       "demo-password",
		RegistrationNo: fmt.Sprintf("HOSP-%d", faker.Number(10000, 99999)),
	})
	if err != nil {
		return err
	}
	if _, err := identitySvc.Decide(ctx, adminID, hospital.UserID, identity.DecisionApprove); err != nil {
		return err
	}

	doctorName := "Dr. " + faker.Name()
	doctor, err := identitySvc.RegisterDoctor(ctx, identity.RegisterDoctorInput{
		Name:           doctorName,
		Email:          faker.Email(),
		Password:       "demo-password",
		Specialization: specializations[faker.Number(0, len(specializations)-1)],
		HospitalID:     &hospital.ProfileID,
	})
	if err != nil {
		return err
	}
	if _, err := identitySvc.Decide(ctx, adminID, doctor.UserID, identity.DecisionApprove); err != nil {
		return err
	}

	for i := 0; i < patientCount; i++ {
		gender := faker.Gender()
		birth := faker.DateRange(
			time.Now().AddDate(-90, 0, 0),
			time.Now().AddDate(-18, 0, 0),
		)

		reg, err := identitySvc.RegisterPatient(ctx, identity.RegisterPatientInput{
			Name:                  faker.Name(),
			Mobile:                faker.Phone(),
			Password:              "demo-password",
			Gender:                &gender,
			BirthDate:             &birth,
			BloodGroup:            bloodGroups[faker.Number(0, len(bloodGroups)-1)],
			Allergies:             seedAllergies(faker),
			EmergencyContactName:  faker.Name(),
			EmergencyContactPhone: faker.Phone(),
		})
		if err != nil {
			return err
		}

		cardID := fmt.Sprintf("NFC-%s", faker.LetterN(10))
		if _, err := cardSvc.Link(ctx, adminID.String(), reg.ProfileID, cardID); err != nil {
			return err
		}

		for j := 0; j < faker.Number(1, 4); j++ {
			visitedAt := faker.DateRange(time.Now().AddDate(-2, 0, 0), time.Now())
			_, err := recordsSvc.Append(ctx, string(identity.RoleDoctor), doctor.UserID.String(), reg.ProfileID, records.AppendInput{
				RecordedAt:   &visitedAt,
				Hospital:     hospitalName,
				Doctor:       doctorName,
				Diagnosis:    faker.LoremIpsumSentence(6),
				Prescription: faker.LoremIpsumSentence(4),
				Type:         records.TypeVisit,
			})
			if err != nil {
				return err
			}
		}
	}

	log.Info().Int("patients", patientCount).Msg("seed complete")
	return nil
}

func seedAdmin(ctx context.Context, users identity.UserRepository) (uuid.UUID, error) {
	existing, err := users.GetByRoleIdentifier(ctx, identity.RoleAdmin, "admin@healthkey.local")
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, identity.ErrUserNotFound) {
		return uuid.Nil, err
	}

	hash, err := auth.HashPassword("admin-password")
	if err != nil {
		return uuid.Nil, err
	}

	admin := &identity.User{
		ID:           uuid.New(),
		Identifier:   "admin@healthkey.local",
		PasswordHash: hash,
		Role:         identity.RoleAdmin,
		Status:       identity.StatusActive,
	}
	if err := users.Create(ctx, admin); err != nil {
		return uuid.Nil, err
	}
	return admin.ID, nil
}

func seedAllergies(faker *gofakeit.Faker) []string {
	pool := []string{"penicillin", "latex", "peanuts", "aspirin", "sulfa", "shellfish"}
	n := faker.Number(0, 2)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, pool[faker.Number(0, len(pool)-1)])
	}
	return out
}
