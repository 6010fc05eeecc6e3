package appointments

import "time"

// ConflictWindow es la banda alrededor de cada cita activa. El borde es exclusivo:
// dos citas separadas exactamente una hora no chocan.
const ConflictWindow = time.Hour

// HasConflict busca en existing una cita activa de petID a menos de ConflictWindow
// de candidate. excludeID se ignora (reprogramar una cita contra sí misma).
func HasConflict(existing []Appointment, petID string, candidate time.Time, excludeID string) bool {
	for _, a := range existing {
		if a.PetID != petID || !a.Status.Active() {
			continue
		}
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		d := candidate.Sub(a.ScheduledAt)
		if d < 0 {
			d = -d
		}
		if d < ConflictWindow {
			return true
		}
	}
	return false
}
