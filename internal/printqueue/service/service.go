package service

import (
	"go.uber.org/zap"

	"github.com/Aceless34/PrintingQueue/internal/printqueue/repository"
	"github.com/Aceless34/PrintingQueue/internal/shared/metrics"
	"github.com/Aceless34/PrintingQueue/internal/shared/notify"
)

// Services all domain services
type Services struct {
	Project      *ProjectService
	Color        *ColorService
	Manufacturer *LookupService
	Material     *LookupService
	Roll         *RollService
	Stats        *StatsService
	Export       *ExportService
}

func NewServices(repos *repository.Repositories, publisher notify.Publisher, baseTopic string, m *metrics.Metrics, logger *zap.Logger) *Services {
	return &Services{
		Project:      NewProjectService(repos, m),
		Color:        NewColorService(repos),
		Manufacturer: NewManufacturerService(repos),
		Material:     NewMaterialService(repos),
		Roll:         NewRollService(repos),
		Stats:        NewStatsService(repos, publisher, baseTopic, m, logger),
		Export:       NewExportService(repos),
	}
}
