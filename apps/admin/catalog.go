package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/scolarite/core"
	"github.com/trezcool/scolarite/core/registration"
)

var errInvalidArgs = errors.New("invalid arguments")

func (cli *commandLine) addSchoolYear(label, start, end string, current bool) error {
	startDate, err := core.ParseDate(start)
	if err != nil {
		return errors.Wrap(errInvalidArgs, "start must be of form YYYY-MM-DD")
	}
	endDate := startDate.AddDate(1, 0, -1)
	if end != "" {
		if endDate, err = core.ParseDate(end); err != nil {
			return errors.Wrap(errInvalidArgs, "end must be of form YYYY-MM-DD")
		}
	}
	if !endDate.After(startDate) {
		return errors.Wrap(errInvalidArgs, "end must come after start")
	}

	sy, err := cli.repo.CreateSchoolYear(context.Background(), registration.SchoolYear{
		Label:     core.CleanString(label),
		StartDate: startDate,
		EndDate:   endDate,
		IsCurrent: current,
	})
	if err != nil {
		return errors.Wrap(err, "creating school year")
	}
	fmt.Printf("school year %s added: %s\n", sy.Label, sy.ID)
	return nil
}

func (cli *commandLine) addCourse(name string, priceCents int64, capacity int, schedule string) error {
	if priceCents < 0 || capacity < 0 {
		return errors.Wrap(errInvalidArgs, "price and capacity cannot be negative")
	}

	crs, err := cli.repo.CreateCourse(context.Background(), registration.Course{
		Name:       core.CleanString(name),
		Capacity:   capacity,
		PriceCents: priceCents,
		Schedule:   core.CleanString(schedule),
	})
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	fmt.Printf("course %s added: %s\n", crs.Name, crs.ID)
	return nil
}
