package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/neetimanthan/comment-engine/pkg/database"
	"github.com/neetimanthan/comment-engine/pkg/models"
)

// ClusterRepository provides data access for duplicate-comment clusters.
type ClusterRepository interface {
	// ReplaceForDraft deletes a draft's clusters and inserts the new set.
	// The dedupe job always recomputes the full clustering.
	ReplaceForDraft(ctx context.Context, draftID uuid.UUID, clusters []*models.CommentCluster) error

	// ListByDraft returns a draft's clusters, largest first.
	ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*models.CommentCluster, error)
}

type clusterRepository struct{}

// NewClusterRepository creates a new ClusterRepository.
func NewClusterRepository() ClusterRepository {
	return &clusterRepository{}
}

var _ ClusterRepository = (*clusterRepository)(nil)

func (r *clusterRepository) ReplaceForDraft(ctx context.Context, draftID uuid.UUID, clusters []*models.CommentCluster) error {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return fmt.Errorf("no database querier in context")
	}

	_, err := q.Exec(ctx, "DELETE FROM clusters WHERE draft_id = $1", draftID)
	if err != nil {
		return fmt.Errorf("failed to clear clusters: %w", err)
	}

	now := time.Now()
	for _, cluster := range clusters {
		if cluster.ID == uuid.Nil {
			cluster.ID = uuid.New()
		}
		cluster.DraftID = draftID
		cluster.CreatedAt = now

		_, err := q.Exec(ctx, `
			INSERT INTO clusters (id, draft_id, cluster_id, member_ids, representative_id, size, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			cluster.ID, cluster.DraftID, cluster.ClusterID, cluster.MemberIDs,
			cluster.RepresentativeID, cluster.Size, cluster.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert cluster %d: %w", cluster.ClusterID, err)
		}
	}

	return nil
}

func (r *clusterRepository) ListByDraft(ctx context.Context, draftID uuid.UUID) ([]*models.CommentCluster, error) {
	q, ok := database.GetQuerier(ctx)
	if !ok {
		return nil, fmt.Errorf("no database querier in context")
	}

	query := `
		SELECT id, draft_id, cluster_id, member_ids, representative_id, size, created_at
		FROM clusters
		WHERE draft_id = $1
		ORDER BY size DESC, cluster_id`

	rows, err := q.Query(ctx, query, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}
	defer rows.Close()

	var clusters []*models.CommentCluster
	for rows.Next() {
		var cluster models.CommentCluster
		err := rows.Scan(
			&cluster.ID, &cluster.DraftID, &cluster.ClusterID, &cluster.MemberIDs,
			&cluster.RepresentativeID, &cluster.Size, &cluster.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cluster: %w", err)
		}
		clusters = append(clusters, &cluster)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clusters: %w", err)
	}

	return clusters, nil
}
