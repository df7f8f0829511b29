package domain

import "sort"

// Job is an entry in the job catalog that tasks reference
type Job struct {
	ID          string `json:"id" db:"id"`
	JobNumber   string `json:"job_number" db:"job_number"`
	Description string `json:"job_description" db:"description"`
	CompanyName string `json:"company_name" db:"company_name"`
}

// JobCatalog is the read-only job lookup fetched once per session
type JobCatalog struct {
	jobs []Job
	byID map[string]Job
}

// NewJobCatalog indexes jobs by ID, ordered by job number
func NewJobCatalog(jobs []Job) JobCatalog {
	c := JobCatalog{
		jobs: make([]Job, len(jobs)),
		byID: make(map[string]Job, len(jobs)),
	}
	copy(c.jobs, jobs)
	sort.SliceStable(c.jobs, func(i, j int) bool {
		return c.jobs[i].JobNumber < c.jobs[j].JobNumber
	})
	for _, j := range c.jobs {
		c.byID[j.ID] = j
	}
	return c
}

// Lookup resolves a job reference
func (c JobCatalog) Lookup(id string) (Job, bool) {
	j, ok := c.byID[id]
	return j, ok
}

// Jobs returns the catalog ordered by job number
func (c JobCatalog) Jobs() []Job {
	out := make([]Job, len(c.jobs))
	copy(out, c.jobs)
	return out
}

func (c JobCatalog) Len() int { return len(c.jobs) }

// JobNumberFor returns the job number for id, or id itself when it is not in the catalog
func (c JobCatalog) JobNumberFor(id string) string {
	if j, ok := c.byID[id]; ok {
		return j.JobNumber
	}
	return id
}

// Employee is the cached display identity used on report headers
type Employee struct {
	ID          string `json:"id" db:"employee_id"`
	UserID      string `json:"user_id,omitempty" db:"user_id"`
	Name        string `json:"name" db:"name"`
	CompanyID   string `json:"company_id,omitempty" db:"company_id"`
	CompanyName string `json:"company_name" db:"company_name"`
}
