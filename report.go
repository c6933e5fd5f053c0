package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headingStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	separatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

const separator = "----------------------------------------"

// printContentTypes writes each content type with its field name/type pairs
func printContentTypes(w io.Writer, types []ContentType) {
	fmt.Fprintln(w, headingStyle.Render("Available Content Types:"))
	for _, ct := range types {
		fmt.Fprintf(w, "- %s %s\n", ct.Name, mutedStyle.Render("(ID: "+ct.Sys.ID+")"))
		for _, f := range ct.Fields {
			fmt.Fprintf(w, "    %s (%s)\n", f.Name, f.Type)
		}
	}
}

// printContentReports echoes fields and raw entry values per content type
func printContentReports(w io.Writer, reports []ContentReport) {
	for _, r := range reports {
		fmt.Fprintln(w, separatorStyle.Render(separator))
		fmt.Fprintf(w, "%s %s\n", headingStyle.Render(r.ContentType.Name), mutedStyle.Render(fmt.Sprintf("(%d entries)", len(r.Entries))))
		for _, f := range r.ContentType.Fields {
			fmt.Fprintf(w, "  field %s: %s (%s)\n", f.ID, f.Name, f.Type)
		}
		for _, e := range r.Entries {
			fmt.Fprintf(w, "  entry %s\n", e.Sys.ID)
			for _, id := range sortedKeys(e.Fields) {
				raw, err := json.Marshal(e.Fields[id])
				if err != nil {
					raw = []byte(fmt.Sprintf("%v", e.Fields[id]))
				}
				fmt.Fprintf(w, "    %s = %s\n", id, raw)
			}
		}
	}
}

// printBulkReport summarizes a bulk delete
func printBulkReport(w io.Writer, r *BulkReport) {
	target := r.Kind + " items"
	if r.ContentType != "" {
		target = fmt.Sprintf("%s entries", r.ContentType)
	}
	fmt.Fprintln(w, headingStyle.Render("Deleted "+target))
	fmt.Fprintf(w, "  listed=%d published=%d\n", r.Listed, r.Published)
	fmt.Fprintf(w, "  unpublished=%s unpublish_failed=%s\n", okStyle.Render(fmt.Sprint(r.Unpublished)), failStyle.Render(fmt.Sprint(r.UnpublishFailed)))
	fmt.Fprintf(w, "  deleted=%s delete_failed=%s\n", okStyle.Render(fmt.Sprint(r.Deleted)), failStyle.Render(fmt.Sprint(r.DeleteFailed)))
	for _, err := range r.Failures {
		fmt.Fprintf(w, "  %s %v\n", failStyle.Render("✗"), err)
	}
}

// printSummary writes the per-submission outcomes of a processing run
func printSummary(w io.Writer, s *Summary) {
	fmt.Fprintln(w, separatorStyle.Render(separator))
	for _, r := range s.Results {
		switch r.Status {
		case StatusSuccess:
			line := fmt.Sprintf("✓ %s %q → %s (%d photos)", r.Dir, r.Title, r.EntryID, r.Assets)
			if len(r.RejectedPhotos) > 0 {
				line += " skipped photos: " + strings.Join(r.RejectedPhotos, ", ")
			}
			fmt.Fprintln(w, okStyle.Render(line))
		case StatusSkipped:
			fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("- %s %q skipped", r.Dir, r.Title)))
		case StatusError:
			fmt.Fprintln(w, failStyle.Render(fmt.Sprintf("✗ %s: %v", r.Dir, r.Error)))
		}
	}
	status := "Finished."
	if s.Interrupted {
		status = "Interrupted."
	}
	fmt.Fprintf(w, "%s published=%d skipped=%d failed=%d\n", status, s.Published, s.Skipped, s.Failed)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
