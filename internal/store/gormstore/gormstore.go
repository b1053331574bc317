// Package gormstore implements the persistence contracts on MySQL via
// GORM. Nested documents are serialized into JSON columns so the row
// shape stays stable as the embedded types evolve.
package gormstore

import (
	"context"
	stderrors "errors"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"talentgate/internal/config"
	"talentgate/internal/errors"
	"talentgate/internal/types"
)

// Store is the MySQL-backed implementation of store.Store.
type Store struct {
	db *gorm.DB
}

// New opens a MySQL connection, applies the configured pool settings,
// and migrates the schema.
func New(cfg config.DatabaseConfig) (*Store, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStoreFailed, "failed to connect to mysql", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStoreFailed, "failed to access connection pool", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.AutoMigrate(
		&applicationRow{},
		&jobRow{},
		&profileRow{},
		&testRoundRow{},
		&userRow{},
		&companyRow{},
	); err != nil {
		return nil, errors.NewIOError(errors.ErrCodeStoreFailed, "schema migration failed", err)
	}

	return &Store{db: db}, nil
}

func notFound(message string) error {
	return errors.NewNotFoundError(errors.ErrCodeNotFound, message, nil)
}

func storeFailed(message string, cause error) error {
	return errors.NewIOError(errors.ErrCodeStoreFailed, message, cause)
}

func (s *Store) FindApplication(ctx context.Context, studentID, jobID string, excludeStatus ...types.ApplicationStatus) (*types.Application, error) {
	query := s.db.WithContext(ctx).
		Where("student_id = ? AND job_id = ?", studentID, jobID)
	if len(excludeStatus) > 0 {
		statuses := make([]string, len(excludeStatus))
		for i, st := range excludeStatus {
			statuses[i] = string(st)
		}
		query = query.Where("status NOT IN ?", statuses)
	}

	var row applicationRow
	if err := query.Order("created_at").First(&row).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeFailed("application lookup failed", err)
	}
	return rowToApplication(&row)
}

func (s *Store) GetApplication(ctx context.Context, id string) (*types.Application, error) {
	var row applicationRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("application not found: " + id)
		}
		return nil, storeFailed("application lookup failed", err)
	}
	return rowToApplication(&row)
}

func (s *Store) CreateApplication(ctx context.Context, app *types.Application) error {
	row, err := applicationToRow(app)
	if err != nil {
		return storeFailed("application encoding failed", err)
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return storeFailed("application insert failed", err)
	}
	return nil
}

func (s *Store) UpdateApplication(ctx context.Context, app *types.Application) error {
	row, err := applicationToRow(app)
	if err != nil {
		return storeFailed("application encoding failed", err)
	}
	result := s.db.WithContext(ctx).Model(&applicationRow{}).Where("id = ?", row.ID).
		Select("*").Updates(row)
	if result.Error != nil {
		return storeFailed("application update failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("application not found: " + app.ID)
	}
	return nil
}

func (s *Store) DeleteApplication(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&applicationRow{}, "id = ?", id)
	if result.Error != nil {
		return storeFailed("application delete failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("application not found: " + id)
	}
	return nil
}

func (s *Store) ListApplicationsByStudent(ctx context.Context, studentID string) ([]types.Application, error) {
	return s.listApplications(ctx, "student_id = ?", studentID)
}

func (s *Store) ListApplicationsByJob(ctx context.Context, jobID string) ([]types.Application, error) {
	return s.listApplications(ctx, "job_id = ?", jobID)
}

func (s *Store) listApplications(ctx context.Context, query string, arg any) ([]types.Application, error) {
	var rows []applicationRow
	if err := s.db.WithContext(ctx).Where(query, arg).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, storeFailed("application listing failed", err)
	}

	apps := make([]types.Application, 0, len(rows))
	for i := range rows {
		app, err := rowToApplication(&rows[i])
		if err != nil {
			return nil, storeFailed("application decoding failed", err)
		}
		apps = append(apps, *app)
	}
	return apps, nil
}

func (s *Store) FindJob(ctx context.Context, id string) (*types.JobRequirements, error) {
	var row jobRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("job not found: " + id)
		}
		return nil, storeFailed("job lookup failed", err)
	}
	return rowToJob(&row)
}

func (s *Store) SaveJob(ctx context.Context, job *types.JobRequirements) error {
	row, err := jobToRow(job)
	if err != nil {
		return storeFailed("job encoding failed", err)
	}
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return storeFailed("job save failed", err)
	}
	return nil
}

func (s *Store) ListJobsByOwner(ctx context.Context, ownerID string) ([]types.JobRequirements, error) {
	var rows []jobRow
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&rows).Error; err != nil {
		return nil, storeFailed("job listing failed", err)
	}

	jobs := make([]types.JobRequirements, 0, len(rows))
	for i := range rows {
		job, err := rowToJob(&rows[i])
		if err != nil {
			return nil, storeFailed("job decoding failed", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

func (s *Store) CountJobsByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&jobRow{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, storeFailed("job count failed", err)
	}
	return count, nil
}

func (s *Store) GetProfileSignal(ctx context.Context, studentID string) (*types.StudentProfile, error) {
	var row profileRow
	if err := s.db.WithContext(ctx).First(&row, "student_id = ?", studentID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeFailed("profile lookup failed", err)
	}
	return rowToProfile(&row)
}

func (s *Store) SaveProfileSignal(ctx context.Context, profile *types.StudentProfile) error {
	row, err := profileToRow(profile)
	if err != nil {
		return storeFailed("profile encoding failed", err)
	}
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return storeFailed("profile save failed", err)
	}
	return nil
}

func (s *Store) GetTestRound(ctx context.Context, id string) (*types.TestRound, error) {
	var row testRoundRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("test round not found: " + id)
		}
		return nil, storeFailed("test round lookup failed", err)
	}
	return rowToTestRound(&row)
}

func (s *Store) CreateTestRound(ctx context.Context, round *types.TestRound) error {
	row, err := testRoundToRow(round)
	if err != nil {
		return storeFailed("test round encoding failed", err)
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return storeFailed("test round insert failed", err)
	}
	return nil
}

func (s *Store) UpdateTestRound(ctx context.Context, round *types.TestRound) error {
	row, err := testRoundToRow(round)
	if err != nil {
		return storeFailed("test round encoding failed", err)
	}
	result := s.db.WithContext(ctx).Model(&testRoundRow{}).Where("id = ?", row.ID).
		Select("*").Updates(row)
	if result.Error != nil {
		return storeFailed("test round update failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("test round not found: " + round.ID)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*types.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("user not found: " + id)
		}
		return nil, storeFailed("user lookup failed", err)
	}
	return &types.User{ID: row.ID, Name: row.Name, Email: row.Email, Role: types.Role(row.Role)}, nil
}

func (s *Store) SaveUser(ctx context.Context, user *types.User) error {
	row := &userRow{ID: user.ID, Name: user.Name, Email: user.Email, Role: string(user.Role)}
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return storeFailed("user save failed", err)
	}
	return nil
}

func (s *Store) CountCompaniesByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&companyRow{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, storeFailed("company count failed", err)
	}
	return count, nil
}

func (s *Store) SetCompanyOwner(ctx context.Context, companyID, ownerID string) error {
	row := &companyRow{ID: companyID, OwnerID: ownerID}
	if err := s.db.WithContext(ctx).Save(row).Error; err != nil {
		return storeFailed("company save failed", err)
	}
	return nil
}

// Ping verifies database liveness for health checks.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storeFailed("failed to access connection pool", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storeFailed("database ping failed", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
