package jobs

import "github.com/wolfeidau/dewrangle/internal/models"

const jobQuery = `
query Job($id: ID!) {
	job: node(id: $id) {
		id
		... on Job {
			operation
			createdAt
			completedAt
			errors {
				edges {
					node {
						id
						message
					}
				}
			}
			billingGroup {
				name
			}
			cost {
				cents
			}
			parentJob {
				id
				operation
				createdAt
				completedAt
			}
			children {
				id
				operation
				createdAt
				completedAt
				errors {
					edges {
						node {
							id
							message
						}
					}
				}
			}
		}
	}
}`

const volumeJobsQuery = `
query VolumeJobs($id: ID!) {
	volume: node(id: $id) {
		id
		... on Volume {
			jobs {
				edges {
					node {
						id
						operation
						createdAt
						completedAt
					}
				}
			}
		}
	}
}`

type jobNode struct {
	ID          string  `json:"id"`
	Operation   string  `json:"operation"`
	CreatedAt   string  `json:"createdAt"`
	CompletedAt *string `json:"completedAt"`
	Errors      *struct {
		Edges []struct {
			Node struct {
				ID      string `json:"id"`
				Message string `json:"message"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"errors"`
	BillingGroup *struct {
		Name string `json:"name"`
	} `json:"billingGroup"`
	Cost *struct {
		Cents *int `json:"cents"`
	} `json:"cost"`
	ParentJob *jobNode  `json:"parentJob"`
	Children  []jobNode `json:"children"`
}

// toModel converts the wire shape. Timestamps that do not parse fail the
// whole conversion.
func (n *jobNode) toModel() (*models.Job, error) {
	created, err := models.ParseTimestamp(n.CreatedAt)
	if err != nil {
		return nil, err
	}
	completed, err := models.ParseOptionalTimestamp(n.CompletedAt)
	if err != nil {
		return nil, err
	}

	job := &models.Job{
		ID:          n.ID,
		Operation:   models.NewOperation(n.Operation),
		CreatedAt:   created,
		CompletedAt: completed,
	}

	if n.Errors != nil {
		for _, e := range n.Errors.Edges {
			job.Errors = append(job.Errors, e.Node.Message)
		}
	}
	if n.BillingGroup != nil {
		job.BillingGroup = n.BillingGroup.Name
	}
	if n.Cost != nil {
		job.CostCents = n.Cost.Cents
	}

	if n.ParentJob != nil {
		parent, err := n.ParentJob.toModel()
		if err != nil {
			return nil, err
		}
		job.ParentJob = parent
	}

	for i := range n.Children {
		child, err := n.Children[i].toModel()
		if err != nil {
			return nil, err
		}
		job.Children = append(job.Children, *child)
	}

	return job, nil
}
