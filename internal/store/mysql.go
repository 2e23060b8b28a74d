package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"campaign-sync-service/internal/campaign"
	"campaign-sync-service/internal/config"
	"campaign-sync-service/internal/database"
)

type MySQLStore struct {
	db *database.Database
}

func NewMySQLStore(cfg config.DatabaseConnection) (*MySQLStore, error) {
	db, err := database.NewDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// GetCampaignSet loads the full campaign hierarchy for one campaign set:
// campaigns, their ad groups, and each group's ads and keywords, ordered
// by order_index at every level.
func (s *MySQLStore) GetCampaignSet(ctx context.Context, campaignSetID string) ([]campaign.Campaign, error) {
	query := `SELECT id, campaign_set_id, name, order_index, status, objective,
			  daily_budget, lifetime_budget, start_time, end_time, platform_id, updated_at
			  FROM campaigns WHERE campaign_set_id = ? ORDER BY order_index`

	rows, err := s.db.DB.QueryContext(ctx, query, campaignSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []campaign.Campaign
	for rows.Next() {
		var c campaign.Campaign
		var objective, startTime, endTime, platformID sql.NullString
		err := rows.Scan(
			&c.ID,
			&c.CampaignSetID,
			&c.Name,
			&c.OrderIndex,
			&c.Status,
			&objective,
			&c.DailyBudget,
			&c.LifetimeBudget,
			&startTime,
			&endTime,
			&platformID,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		c.Objective = objective.String
		c.StartTime = startTime.String
		c.EndTime = endTime.String
		c.PlatformID = platformID.String
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	groups, err := s.loadAdGroups(ctx, campaignSetID)
	if err != nil {
		return nil, err
	}
	adsByGroup, err := s.loadAds(ctx, campaignSetID)
	if err != nil {
		return nil, err
	}
	keywordsByGroup, err := s.loadKeywords(ctx, campaignSetID)
	if err != nil {
		return nil, err
	}

	groupsByCampaign := make(map[string][]campaign.AdGroup)
	for _, g := range groups {
		g.Ads = adsByGroup[g.ID]
		g.Keywords = keywordsByGroup[g.ID]
		groupsByCampaign[g.CampaignID] = append(groupsByCampaign[g.CampaignID], g)
	}
	for i := range campaigns {
		campaigns[i].AdGroups = groupsByCampaign[campaigns[i].ID]
	}

	return campaigns, nil
}

func (s *MySQLStore) loadAdGroups(ctx context.Context, campaignSetID string) ([]campaign.AdGroup, error) {
	query := `SELECT g.id, g.campaign_id, g.name, g.order_index, g.status,
			  g.bid_strategy, g.bid_amount, g.start_time, g.end_time, g.platform_id
			  FROM ad_groups g JOIN campaigns c ON g.campaign_id = c.id
			  WHERE c.campaign_set_id = ? ORDER BY g.order_index`

	rows, err := s.db.DB.QueryContext(ctx, query, campaignSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []campaign.AdGroup
	for rows.Next() {
		var g campaign.AdGroup
		var bidStrategy, startTime, endTime, platformID sql.NullString
		err := rows.Scan(
			&g.ID,
			&g.CampaignID,
			&g.Name,
			&g.OrderIndex,
			&g.Status,
			&bidStrategy,
			&g.BidAmount,
			&startTime,
			&endTime,
			&platformID,
		)
		if err != nil {
			return nil, err
		}
		g.BidStrategy = bidStrategy.String
		g.StartTime = startTime.String
		g.EndTime = endTime.String
		g.PlatformID = platformID.String
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *MySQLStore) loadAds(ctx context.Context, campaignSetID string) (map[string][]campaign.Ad, error) {
	query := `SELECT a.id, a.ad_group_id, a.name, a.order_index, a.headline,
			  a.description, a.display_url, a.final_url, a.call_to_action, a.status, a.platform_id
			  FROM ads a
			  JOIN ad_groups g ON a.ad_group_id = g.id
			  JOIN campaigns c ON g.campaign_id = c.id
			  WHERE c.campaign_set_id = ? ORDER BY a.order_index`

	rows, err := s.db.DB.QueryContext(ctx, query, campaignSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ads := make(map[string][]campaign.Ad)
	for rows.Next() {
		var a campaign.Ad
		var description, displayURL, callToAction, platformID sql.NullString
		err := rows.Scan(
			&a.ID,
			&a.AdGroupID,
			&a.Name,
			&a.OrderIndex,
			&a.Headline,
			&description,
			&displayURL,
			&a.FinalURL,
			&callToAction,
			&a.Status,
			&platformID,
		)
		if err != nil {
			return nil, err
		}
		a.Description = description.String
		a.DisplayURL = displayURL.String
		a.CallToAction = callToAction.String
		a.PlatformID = platformID.String
		ads[a.AdGroupID] = append(ads[a.AdGroupID], a)
	}
	return ads, rows.Err()
}

func (s *MySQLStore) loadKeywords(ctx context.Context, campaignSetID string) (map[string][]campaign.Keyword, error) {
	query := `SELECT k.id, k.ad_group_id, k.text, k.match_type, k.bid, k.status, k.platform_id
			  FROM keywords k
			  JOIN ad_groups g ON k.ad_group_id = g.id
			  JOIN campaigns c ON g.campaign_id = c.id
			  WHERE c.campaign_set_id = ?`

	rows, err := s.db.DB.QueryContext(ctx, query, campaignSetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keywords := make(map[string][]campaign.Keyword)
	for rows.Next() {
		var k campaign.Keyword
		var matchType, platformID sql.NullString
		err := rows.Scan(
			&k.ID,
			&k.AdGroupID,
			&k.Text,
			&matchType,
			&k.Bid,
			&k.Status,
			&platformID,
		)
		if err != nil {
			return nil, err
		}
		k.MatchType = matchType.String
		k.PlatformID = platformID.String
		keywords[k.AdGroupID] = append(keywords[k.AdGroupID], k)
	}
	return keywords, rows.Err()
}

func (s *MySQLStore) GetSyncRecords(ctx context.Context, campaignSetID, platform string) ([]*SyncRecord, error) {
	query := `SELECT id, campaign_id, campaign_set_id, platform, platform_id, sync_status,
			  last_synced_at, retry_count, next_retry_at, permanent_failure, error_log, updated_at
			  FROM sync_records WHERE campaign_set_id = ? AND platform = ?`

	rows, err := s.db.DB.QueryContext(ctx, query, campaignSetID, platform)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*SyncRecord
	for rows.Next() {
		var r SyncRecord
		err := rows.Scan(
			&r.ID,
			&r.CampaignID,
			&r.CampaignSetID,
			&r.Platform,
			&r.PlatformID,
			&r.SyncStatus,
			&r.LastSyncedAt,
			&r.RetryCount,
			&r.NextRetryAt,
			&r.PermanentFailure,
			&r.ErrorLog,
			&r.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

func (s *MySQLStore) UpsertSyncRecord(ctx context.Context, record *SyncRecord) error {
	query := `INSERT INTO sync_records (id, campaign_id, campaign_set_id, platform, platform_id,
			  sync_status, last_synced_at, retry_count, next_retry_at, permanent_failure, error_log, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())
			  ON DUPLICATE KEY UPDATE
			  platform_id = VALUES(platform_id),
			  sync_status = VALUES(sync_status),
			  last_synced_at = VALUES(last_synced_at),
			  retry_count = VALUES(retry_count),
			  next_retry_at = VALUES(next_retry_at),
			  permanent_failure = VALUES(permanent_failure),
			  error_log = VALUES(error_log),
			  updated_at = NOW()`

	_, err := s.db.DB.ExecContext(ctx, query,
		record.ID,
		record.CampaignID,
		record.CampaignSetID,
		record.Platform,
		record.PlatformID,
		record.SyncStatus,
		record.LastSyncedAt,
		record.RetryCount,
		record.NextRetryAt,
		record.PermanentFailure,
		record.ErrorLog,
	)
	return err
}

// ApplyPlatformIDs writes freshly assigned platform ids back onto the
// local entities inside one transaction.
func (s *MySQLStore) ApplyPlatformIDs(ctx context.Context, assignments []PlatformAssignment) error {
	if len(assignments) == 0 {
		return nil
	}

	tables := map[string]string{
		"campaign": "campaigns",
		"ad_group": "ad_groups",
		"ad":       "ads",
		"keyword":  "keywords",
	}

	return s.db.ExecTx(ctx, func(tx *sql.Tx) error {
		for _, a := range assignments {
			table, ok := tables[a.EntityType]
			if !ok {
				return fmt.Errorf("unknown entity type %q", a.EntityType)
			}
			query := `UPDATE ` + table + ` SET platform_id = ? WHERE id = ?`
			if _, err := tx.ExecContext(ctx, query, a.PlatformID, a.LocalID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *MySQLStore) EnqueueJob(ctx context.Context, job *SyncJob) error {
	query := `INSERT INTO sync_jobs (id, campaign_set_id, team_id, ad_account_id, platform,
			  funding_instrument_id, dry_run, status, retry_count, next_retry_at, error_log, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := s.db.DB.ExecContext(ctx, query,
		job.ID,
		job.CampaignSetID,
		job.TeamID,
		job.AdAccountID,
		job.Platform,
		job.FundingInstrumentID,
		job.DryRun,
		job.Status,
		job.RetryCount,
		job.NextRetryAt,
		job.ErrorLog,
	)
	return err
}

const jobColumns = `id, campaign_set_id, team_id, ad_account_id, platform, funding_instrument_id,
			  dry_run, status, retry_count, next_retry_at, error_log, created_at, updated_at`

func scanJob(row interface{ Scan(...interface{}) error }) (*SyncJob, error) {
	var j SyncJob
	err := row.Scan(
		&j.ID,
		&j.CampaignSetID,
		&j.TeamID,
		&j.AdAccountID,
		&j.Platform,
		&j.FundingInstrumentID,
		&j.DryRun,
		&j.Status,
		&j.RetryCount,
		&j.NextRetryAt,
		&j.ErrorLog,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *MySQLStore) GetJob(ctx context.Context, id string) (*SyncJob, error) {
	query := `SELECT ` + jobColumns + ` FROM sync_jobs WHERE id = ?`

	job, err := scanJob(s.db.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ClaimNextJob atomically picks the oldest due queued job and marks it
// running, so concurrent workers never claim the same job twice.
func (s *MySQLStore) ClaimNextJob(ctx context.Context) (*SyncJob, error) {
	tx, err := s.db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `SELECT ` + jobColumns + ` FROM sync_jobs
			  WHERE status = ? AND (next_retry_at IS NULL OR next_retry_at <= NOW())
			  ORDER BY created_at LIMIT 1 FOR UPDATE`

	job, err := scanJob(tx.QueryRowContext(ctx, query, JobQueued))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sync_jobs SET status = ?, updated_at = NOW() WHERE id = ?`,
		JobRunning, job.ID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	job.Status = JobRunning
	return job, nil
}

func (s *MySQLStore) CompleteJob(ctx context.Context, id string) error {
	_, err := s.db.DB.ExecContext(ctx,
		`UPDATE sync_jobs SET status = ?, error_log = NULL, updated_at = NOW() WHERE id = ?`,
		JobCompleted, id,
	)
	return err
}

func (s *MySQLStore) FailJob(ctx context.Context, id, errorLog string, retryCount int, nextRetryAt time.Time, permanent bool) error {
	status := JobFailed
	next := sql.NullTime{Time: nextRetryAt, Valid: !permanent}
	if permanent {
		status = JobPermanentFailure
	}

	_, err := s.db.DB.ExecContext(ctx,
		`UPDATE sync_jobs SET status = ?, error_log = ?, retry_count = ?, next_retry_at = ?, updated_at = NOW() WHERE id = ?`,
		status, errorLog, retryCount, next, id,
	)
	return err
}

// RequeueDueJobs moves failed jobs whose backoff has elapsed back to
// queued. Permanent failures are never picked up.
func (s *MySQLStore) RequeueDueJobs(ctx context.Context, now time.Time) (int, error) {
	result, err := s.db.DB.ExecContext(ctx,
		`UPDATE sync_jobs SET status = ?, updated_at = NOW()
		 WHERE status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?`,
		JobQueued, JobFailed, now,
	)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

func (s *MySQLStore) CreateSyncRun(ctx context.Context, run *SyncRun) error {
	query := `INSERT INTO sync_runs (id, job_id, campaign_set_id, platform, started_at, status)
			  VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.DB.ExecContext(ctx, query,
		run.ID,
		run.JobID,
		run.CampaignSetID,
		run.Platform,
		run.StartedAt,
		run.Status,
	)
	return err
}

func (s *MySQLStore) CompleteSyncRun(ctx context.Context, run *SyncRun) error {
	query := `UPDATE sync_runs SET completed_at = ?, status = ?, result = ?, error_message = ? WHERE id = ?`

	_, err := s.db.DB.ExecContext(ctx, query,
		run.CompletedAt,
		run.Status,
		[]byte(run.Result),
		run.ErrorMessage,
		run.ID,
	)
	return err
}

func (s *MySQLStore) ListSyncRuns(ctx context.Context, limit, offset int) ([]*SyncRun, error) {
	query := `SELECT id, job_id, campaign_set_id, platform, started_at, completed_at, status, result, error_message
			  FROM sync_runs ORDER BY started_at DESC LIMIT ? OFFSET ?`

	rows, err := s.db.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*SyncRun
	for rows.Next() {
		var r SyncRun
		var result []byte
		err := rows.Scan(
			&r.ID,
			&r.JobID,
			&r.CampaignSetID,
			&r.Platform,
			&r.StartedAt,
			&r.CompletedAt,
			&r.Status,
			&result,
			&r.ErrorMessage,
		)
		if err != nil {
			return nil, err
		}
		r.Result = result
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}

func (s *MySQLStore) CreateConflict(ctx context.Context, conflict *ConflictRecord) error {
	query := `INSERT INTO conflicts (id, campaign_id, platform_id, platform, field,
			  local_status, platform_status, detected_at, resolved)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.DB.ExecContext(ctx, query,
		conflict.ID,
		conflict.CampaignID,
		conflict.PlatformID,
		conflict.Platform,
		conflict.Field,
		conflict.LocalStatus,
		conflict.PlatformStatus,
		conflict.DetectedAt,
		conflict.Resolved,
	)
	return err
}

func (s *MySQLStore) ListConflicts(ctx context.Context, resolved bool, limit, offset int) ([]*ConflictRecord, error) {
	query := `SELECT id, campaign_id, platform_id, platform, field, local_status, platform_status,
			  detected_at, resolved, resolved_at
			  FROM conflicts WHERE resolved = ? ORDER BY detected_at DESC LIMIT ? OFFSET ?`

	rows, err := s.db.DB.QueryContext(ctx, query, resolved, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conflicts []*ConflictRecord
	for rows.Next() {
		var c ConflictRecord
		err := rows.Scan(
			&c.ID,
			&c.CampaignID,
			&c.PlatformID,
			&c.Platform,
			&c.Field,
			&c.LocalStatus,
			&c.PlatformStatus,
			&c.DetectedAt,
			&c.Resolved,
			&c.ResolvedAt,
		)
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, &c)
	}
	return conflicts, rows.Err()
}
