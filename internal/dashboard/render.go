package dashboard

import (
	"fmt"
	"io"
)

// Render writes a text rendering of the snapshot.
func Render(w io.Writer, snap Snapshot) {
	fmt.Fprintln(w, "Refrain Dashboard")
	fmt.Fprintln(w, "=================")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Beta testing phase: feedback welcome at support@refrain.ing")
	fmt.Fprintln(w)

	if snap.Loading {
		fmt.Fprintln(w, "Loading your dashboard...")
		return
	}

	renderProfile(w, snap)
	fmt.Fprintln(w)
	renderHistory(w, snap)
}

func renderProfile(w io.Writer, snap Snapshot) {
	fmt.Fprintln(w, "Your Profile")
	fmt.Fprintln(w, "------------")

	if snap.ProfileErr != "" {
		fmt.Fprintf(w, "  ! %s\n", snap.ProfileErr)
		return
	}
	if snap.Profile == nil {
		fmt.Fprintln(w, "  (no profile)")
		return
	}

	p := snap.Profile
	fmt.Fprintf(w, "  Name:                %s\n", p.ParticipantName)
	fmt.Fprintf(w, "  Email:               %s\n", p.Email)
	fmt.Fprintf(w, "  Phone:               %s\n", p.PhoneNumber)
	fmt.Fprintf(w, "  Preferred Call Time: %s\n", p.PreferredCallTime)
	if p.RecoveryNotes != "" {
		fmt.Fprintf(w, "  Recovery Notes:      %s\n", p.RecoveryNotes)
	} else {
		fmt.Fprintln(w, "  Recovery Notes:      No notes added")
	}

	if snap.SaveErr != "" {
		fmt.Fprintf(w, "  ! %s\n", snap.SaveErr)
	}
}

func renderHistory(w io.Writer, snap Snapshot) {
	fmt.Fprintln(w, "Call History")
	fmt.Fprintln(w, "------------")

	if snap.CallErr != "" {
		fmt.Fprintf(w, "  ! %s\n", snap.CallErr)
	}
	if snap.HistoryErr != "" {
		fmt.Fprintf(w, "  ! %s\n", snap.HistoryErr)
		return
	}

	if len(snap.Calls) == 0 {
		fmt.Fprintln(w, "  No calls yet. Give Sia a call to get started!")
		return
	}

	for _, call := range snap.Calls {
		duration := "N/A"
		if call.DurationSeconds != nil {
			duration = fmt.Sprintf("%ds", *call.DurationSeconds)
		}
		fmt.Fprintf(w, "  %s  %-12s duration: %s\n",
			call.StartedAt.Format("2006-01-02 15:04"), call.Status, duration)
	}
}
