package types

import "time"

// Run records one synthesis of a cluster configuration
type Run struct {
	ID          string    `json:"id"`
	ClusterID   string    `json:"cluster_id"`
	Environment string    `json:"environment"`
	Projects    []string  `json:"projects"`
	Digest      string    `json:"digest"`
	OutputDir   string    `json:"output_dir"`
	Status      RunStatus `json:"status"`
	Message     *string   `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
