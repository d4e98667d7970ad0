package workers

import (
	"time"

	"github.com/rs/zerolog/log"
	"hookgate/internal/platform/config"
	"hookgate/internal/platform/repositories"
)

// Maintenance runs the periodic housekeeping the gateway needs: pruning
// stored deliveries and rejections past retention, and expiring retired
// endpoint secrets after the rotation grace window.
type Maintenance struct {
	endpoints  *repositories.EndpointRepository
	deliveries *repositories.DeliveryRepository
	rejections *repositories.RejectionRepository
	cfg        config.RetentionConfig
}

func NewMaintenance(
	endpoints *repositories.EndpointRepository,
	deliveries *repositories.DeliveryRepository,
	rejections *repositories.RejectionRepository,
	cfg config.RetentionConfig,
) *Maintenance {
	return &Maintenance{
		endpoints:  endpoints,
		deliveries: deliveries,
		rejections: rejections,
		cfg:        cfg,
	}
}

func (m *Maintenance) PruneStored() {
	cutoff := time.Now().Add(-m.cfg.EventMaxAge).Unix()

	pruned, err := m.deliveries.DeleteOlderThan(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to prune deliveries")
	} else if pruned > 0 {
		log.Info().Int64("pruned", pruned).Msg("pruned old deliveries")
	}

	pruned, err = m.rejections.DeleteOlderThan(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to prune rejections")
	} else if pruned > 0 {
		log.Info().Int64("pruned", pruned).Msg("pruned old rejections")
	}
}

func (m *Maintenance) ExpireRetiredSecrets() {
	cutoff := time.Now().Add(-m.cfg.RotationGrace).Unix()

	expired, err := m.endpoints.ClearExpiredPreviousSecrets(cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to expire retired secrets")
	} else if expired > 0 {
		log.Info().Int64("expired", expired).Msg("retired secrets expired after rotation grace")
	}
}
