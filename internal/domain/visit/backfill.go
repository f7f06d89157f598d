package visit

import "context"

// Status-keyed defaults for visits recorded before temperature capture was
// mandatory. Unknown statuses get the normal-range default.
const defaultTemperature = "98.6°F"

var temperatureDefaults = map[string]string{
	"Critical": "102.2°F",
	"Active":   "99.6°F",
}

// BackfillTemperatures fills empty temperature fields with a status-keyed
// default and returns how many visits were updated. Already-filled visits
// are untouched, so running it again is a no-op.
func (s *Service) BackfillTemperatures(ctx context.Context) (int, error) {
	visits, err := s.repo.ListMissingTemperature(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, v := range visits {
		temp, ok := temperatureDefaults[v.Status]
		if !ok {
			temp = defaultTemperature
		}
		if err := s.repo.SetTemperature(ctx, v.VisitID, temp); err != nil {
			return count, err
		}
		count++
	}

	if count > 0 {
		s.logger.Info().Int("updated", count).Msg("temperature backfill complete")
	}
	return count, nil
}
