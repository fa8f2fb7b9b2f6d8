// Package seed populates the database with demo data for development.
package seed

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"campuswell/internal/database"
	"campuswell/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options controls how much data the seeder generates.
type Options struct {
	Students      int
	Psychologists int
	Posts         int
	Clean         bool
}

// Seeder builds demo entities and persists them. All generated accounts
// share the password "password123".
type Seeder struct {
	db  *gorm.DB
	rnd *rand.Rand
}

func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// ClearAll wipes every seeded table. Dependents go before their owners,
// so the model list is walked in reverse.
func (s *Seeder) ClearAll() error {
	all := database.AllModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := s.db.Unscoped().Where("1 = 1").Delete(all[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", all[i], err)
		}
	}
	log.Println("Database cleared")
	return nil
}

// Run generates the full demo dataset.
func (s *Seeder) Run(opts Options) error {
	if opts.Clean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}

	students, err := s.createUsers(opts.Students, models.RoleStudent)
	if err != nil {
		return err
	}
	psychologists, err := s.createUsers(opts.Psychologists, models.RolePsychologist)
	if err != nil {
		return err
	}
	if _, err := s.createAdmin(); err != nil {
		return err
	}

	if err := s.createBoard(students, opts.Posts); err != nil {
		return err
	}
	if err := s.createSlotsAndAppointments(students, psychologists); err != nil {
		return err
	}
	if err := s.createMessages(students, psychologists); err != nil {
		return err
	}
	if err := s.createWellbeing(students); err != nil {
		return err
	}
	return s.createWeatherWeek()
}

func (s *Seeder) createUsers(count int, role models.UserRole) ([]models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		users = append(users, models.User{
			Username: fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
			Email:    gofakeit.Email(),
			Password: string(hashed),
			Role:     role,
		})
	}
	if err := s.db.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("seed %s accounts: %w", role, err)
	}
	log.Printf("Created %d %s accounts", len(users), role)
	return users, nil
}

func (s *Seeder) createAdmin() (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	admin := &models.User{
		Username: "admin",
		Email:    "admin@campuswell.local",
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	return admin, nil
}

func (s *Seeder) createBoard(students []models.User, postCount int) error {
	if len(students) == 0 || postCount == 0 {
		return nil
	}

	for i := 0; i < postCount; i++ {
		author := students[s.rnd.Intn(len(students))]
		post := models.Post{
			Title:     gofakeit.Sentence(4),
			Content:   gofakeit.Paragraph(1, 3, 8, "\n"),
			AuthorID:  &author.ID,
			CreatedAt: s.pastTimestamp(60),
		}
		if s.rnd.Intn(4) == 0 {
			post.AuthorID = nil
			post.Anonymous = true
			post.Pseudonym = "anonyme"
		}
		if err := s.db.Create(&post).Error; err != nil {
			return fmt.Errorf("seed post: %w", err)
		}

		for c := 0; c < s.rnd.Intn(5); c++ {
			commenter := students[s.rnd.Intn(len(students))]
			comment := models.Comment{
				PostID:    post.ID,
				AuthorID:  &commenter.ID,
				Content:   gofakeit.Sentence(8),
				CreatedAt: post.CreatedAt.Add(time.Duration(c+1) * time.Hour),
			}
			if err := s.db.Create(&comment).Error; err != nil {
				return fmt.Errorf("seed comment: %w", err)
			}

			for _, reactor := range s.pickUsers(students, s.rnd.Intn(4)) {
				kind := models.ReactionLike
				if s.rnd.Intn(3) == 0 {
					kind = models.ReactionDislike
				}
				reaction := models.Reaction{UserID: reactor.ID, CommentID: comment.ID, Kind: kind}
				if err := s.db.Create(&reaction).Error; err != nil {
					return fmt.Errorf("seed reaction: %w", err)
				}
			}
		}
	}
	log.Printf("Created %d posts with comments and reactions", postCount)
	return nil
}

func (s *Seeder) createSlotsAndAppointments(students, psychologists []models.User) error {
	if len(psychologists) == 0 {
		return nil
	}

	booked := 0
	for _, psy := range psychologists {
		day := time.Now().Truncate(24 * time.Hour).Add(24 * time.Hour)
		for d := 0; d < 5; d++ {
			for h := 9; h < 12; h++ {
				start := day.Add(time.Duration(d)*24*time.Hour + time.Duration(h)*time.Hour)
				slot := models.Availability{
					PsychologistID: psy.ID,
					StartTime:      start,
					EndTime:        start.Add(time.Hour),
					Status:         models.AvailabilityAvailable,
				}
				if err := s.db.Create(&slot).Error; err != nil {
					return fmt.Errorf("seed slot: %w", err)
				}

				if len(students) > 0 && s.rnd.Intn(3) == 0 {
					student := students[s.rnd.Intn(len(students))]
					appointment := models.Appointment{
						Reference:      uuid.NewString(),
						StudentID:      student.ID,
						PsychologistID: psy.ID,
						AvailabilityID: slot.ID,
						StartTime:      slot.StartTime,
						EndTime:        slot.EndTime,
						Status:         models.AppointmentPending,
					}
					if s.rnd.Intn(2) == 0 {
						appointment.Status = models.AppointmentConfirmed
					}
					if err := s.db.Create(&appointment).Error; err != nil {
						return fmt.Errorf("seed appointment: %w", err)
					}
					if err := s.db.Model(&slot).Update("status", models.AvailabilityBlocked).Error; err != nil {
						return err
					}
					booked++
				}
			}
		}
	}
	log.Printf("Created availability for %d psychologists, %d appointments", len(psychologists), booked)
	return nil
}

func (s *Seeder) createMessages(students, psychologists []models.User) error {
	if len(students) < 2 {
		return nil
	}

	count := 0
	for i := 0; i < len(students)/2; i++ {
		a := students[s.rnd.Intn(len(students))]
		b := students[s.rnd.Intn(len(students))]
		if a.ID == b.ID {
			continue
		}
		for m := 0; m < 2+s.rnd.Intn(4); m++ {
			sender, receiver := a, b
			if m%2 == 1 {
				sender, receiver = b, a
			}
			message := models.Message{
				SenderID:   sender.ID,
				ReceiverID: receiver.ID,
				Content:    gofakeit.Sentence(10),
				Kind:       models.MessageText,
				CreatedAt:  s.pastTimestamp(14),
			}
			if err := s.db.Create(&message).Error; err != nil {
				return fmt.Errorf("seed message: %w", err)
			}
			count++
		}
	}
	log.Printf("Created %d chat messages", count)
	return nil
}

func (s *Seeder) createWellbeing(students []models.User) error {
	teachers := []string{"M. Dupont", "Mme Laurent", "M. Garcia", "Mme Petit"}
	courses := []string{"Analyse II", "Algorithmique", "Psychologie cognitive", "Statistiques"}

	for _, student := range s.pickUsers(students, len(students)/2) {
		evaluation := models.Evaluation{
			AuthorID:      &student.ID,
			TeacherName:   teachers[s.rnd.Intn(len(teachers))],
			Course:        courses[s.rnd.Intn(len(courses))],
			Clarity:       1 + s.rnd.Intn(5),
			Engagement:    1 + s.rnd.Intn(5),
			Availability:  1 + s.rnd.Intn(5),
			Concentration: 1 + s.rnd.Intn(5),
			Workload:      1 + s.rnd.Intn(5),
			Remarks:       gofakeit.Sentence(12),
		}
		if s.rnd.Intn(3) == 0 {
			evaluation.AuthorID = nil
		}
		if err := s.db.Create(&evaluation).Error; err != nil {
			return fmt.Errorf("seed evaluation: %w", err)
		}
	}

	week := models.WeekStartFor(time.Now())
	for _, student := range s.pickUsers(students, len(students)/3) {
		scores, _ := json.Marshal(map[string]int{
			"sommeil": 1 + s.rnd.Intn(5),
			"stress":  1 + s.rnd.Intn(5),
			"moral":   1 + s.rnd.Intn(5),
		})
		response := models.QuestionnaireResponse{
			UserID:    student.ID,
			WeekStart: week,
			Scores:    scores,
		}
		if err := s.db.Create(&response).Error; err != nil {
			return fmt.Errorf("seed questionnaire response: %w", err)
		}
	}

	log.Println("Created evaluations and questionnaire responses")
	return nil
}

func (s *Seeder) createWeatherWeek() error {
	conditions := []struct {
		condition      string
		recommendation string
	}{
		{"ensoleillé", "Profitez du soleil pour une marche entre les cours"},
		{"nuageux", "Une pause café en terrasse reste agréable"},
		{"pluvieux", "Prévoyez un parapluie et privilégiez la bibliothèque"},
	}

	day := time.Now()
	for d := 0; d < 7; d++ {
		for _, slot := range []string{"matin", "après-midi"} {
			pick := conditions[s.rnd.Intn(len(conditions))]
			record := models.WeatherRecommendation{
				Day:            day.Add(time.Duration(d) * 24 * time.Hour).Format("2006-01-02"),
				Slot:           slot,
				Temperature:    5 + float64(s.rnd.Intn(20)),
				Condition:      pick.condition,
				Recommendation: pick.recommendation,
			}
			if err := s.db.Create(&record).Error; err != nil {
				return fmt.Errorf("seed weather: %w", err)
			}
		}
	}
	log.Println("Created a week of weather recommendations")
	return nil
}

// pickUsers returns up to n distinct users chosen at random.
func (s *Seeder) pickUsers(users []models.User, n int) []models.User {
	if n >= len(users) {
		return users
	}
	perm := s.rnd.Perm(len(users))
	picked := make([]models.User, 0, n)
	for _, idx := range perm[:n] {
		picked = append(picked, users[idx])
	}
	return picked
}

func (s *Seeder) pastTimestamp(maxDays int) time.Time {
	return time.Now().
		Add(-time.Duration(s.rnd.Intn(maxDays*24)) * time.Hour).
		Add(-time.Duration(s.rnd.Intn(60)) * time.Minute)
}
