package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/scolarite/core/registration"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db     *sql.DB
	engine string
	repo   registration.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...) on the database")
	fmt.Println("  addschoolyear -label LABEL -start YYYY-MM-DD [-end YYYY-MM-DD] [-current] - add a school year")
	fmt.Println("  addcourse -name NAME -price CENTS [-capacity N] [-schedule TEXT] - add a course")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addSchoolYearCmd := flag.NewFlagSet("addschoolyear", flag.ExitOnError)
	addSchoolYearLabel := addSchoolYearCmd.String("label", "", "The school year's label, e.g. 2025-2026.")
	addSchoolYearStart := addSchoolYearCmd.String("start", "", "The first day of the school year (YYYY-MM-DD).")
	addSchoolYearEnd := addSchoolYearCmd.String("end", "", "The last day of the school year (YYYY-MM-DD). Defaults to a year after start.")
	addSchoolYearCurrent := addSchoolYearCmd.Bool("current", false, "Flag the school year as the current one.")

	addCourseCmd := flag.NewFlagSet("addcourse", flag.ExitOnError)
	addCourseName := addCourseCmd.String("name", "", "The course's name.")
	addCoursePrice := addCourseCmd.Int64("price", 0, "The yearly price in cents.")
	addCourseCapacity := addCourseCmd.Int("capacity", 0, "The maximum number of students.")
	addCourseSchedule := addCourseCmd.String("schedule", "", "When the course takes place.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addschoolyear":
		if err := addSchoolYearCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addSchoolYearLabel == "" || *addSchoolYearStart == "" {
			addSchoolYearCmd.Usage()
			return errHelp
		}
		return cli.addSchoolYear(*addSchoolYearLabel, *addSchoolYearStart, *addSchoolYearEnd, *addSchoolYearCurrent)
	case "addcourse":
		if err := addCourseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addCourseName == "" {
			addCourseCmd.Usage()
			return errHelp
		}
		return cli.addCourse(*addCourseName, *addCoursePrice, *addCourseCapacity, *addCourseSchedule)
	default:
		cli.printUsage()
		return errHelp
	}
}
