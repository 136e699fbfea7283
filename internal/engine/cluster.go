package engine

import (
	"sort"
	"strings"

	"github.com/edutools/timetable-optimizer/internal/models"
)

// CourseCluster groups the courses of one subject together with the
// teachers qualified to take them. Clusters only seed the genetic stage's
// gene generation; they carry no placement state.
type CourseCluster struct {
	Subject            string
	Courses            []models.Course
	CompatibleTeachers []models.Teacher
}

// BuildClusters groups courses by subject and precomputes each group's
// compatible-teacher pool. Qualification is an exact case-insensitive match
// of teacher department to course subject; an empty pool is not an error,
// the affected genes simply stay teacherless.
func BuildClusters(courses []models.Course, teachers []models.Teacher) []CourseCluster {
	bySubject := make(map[string][]models.Course)
	for _, c := range courses {
		bySubject[c.Subject] = append(bySubject[c.Subject], c)
	}

	subjects := make([]string, 0, len(bySubject))
	for subject := range bySubject {
		subjects = append(subjects, subject)
	}
	sort.Strings(subjects)

	clusters := make([]CourseCluster, 0, len(subjects))
	for _, subject := range subjects {
		var compatible []models.Teacher
		for _, t := range teachers {
			if strings.EqualFold(t.Department, subject) {
				compatible = append(compatible, t)
			}
		}
		clusters = append(clusters, CourseCluster{
			Subject:            subject,
			Courses:            bySubject[subject],
			CompatibleTeachers: compatible,
		})
	}
	return clusters
}
