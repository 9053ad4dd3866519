package main

import (
	"fmt"
	"io"

	"github.com/Bibi40k/gce-web-bootstrap/pkg/provision"
	"github.com/Bibi40k/gce-web-bootstrap/pkg/startup"
)

// runPlan prints the ordered creation steps and any stack warnings.
func runPlan(w io.Writer) error {
	s, err := loadStack(stackFile)
	if err != nil {
		return err
	}
	steps, err := provision.Plan(&provision.Config{Project: projectFlag, Stack: s})
	if err != nil {
		return err
	}
	for i, st := range steps {
		fmt.Fprintf(w, "%d. %s\n", i+1, st)
	}
	for _, warn := range s.Warnings() {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	return nil
}

// runPayload prints the guest payload exactly as it is stored in metadata.
func runPayload(w io.Writer, format string) error {
	gen, err := startup.NewGenerator()
	if err != nil {
		return err
	}
	s, err := loadStack(stackFile)
	if err != nil {
		return err
	}
	if s.Instance.StartupScript != "" {
		_, err = fmt.Fprint(w, s.Instance.StartupScript)
		return err
	}
	input := &startup.Input{Format: format, MarkerName: s.Instance.Name}
	_, value, err := gen.Generate(input)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, value)
	return err
}
