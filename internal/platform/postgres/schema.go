package postgres

import "context"

const dbSchema = `
CREATE TABLE IF NOT EXISTS giveaways (
	id UUID PRIMARY KEY,
	admin_id BIGINT NOT NULL,
	name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'draft',
	keyword TEXT NOT NULL,
	platforms TEXT[] NOT NULL,
	allowed_roles TEXT[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_giveaways_admin ON giveaways (admin_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_giveaways_admin_open
	ON giveaways (admin_id) WHERE status = 'open';

CREATE TABLE IF NOT EXISTS giveaway_donation_configs (
	giveaway_id UUID NOT NULL REFERENCES giveaways(id) ON DELETE CASCADE,
	platform TEXT NOT NULL,
	unit_type TEXT NOT NULL,
	win_window TEXT NOT NULL,
	PRIMARY KEY (giveaway_id, platform, unit_type)
);

CREATE TABLE IF NOT EXISTS giveaway_role_overrides (
	giveaway_id UUID NOT NULL REFERENCES giveaways(id) ON DELETE CASCADE,
	role TEXT NOT NULL,
	tickets_per_unit BIGINT NOT NULL,
	PRIMARY KEY (giveaway_id, role)
);

CREATE TABLE IF NOT EXISTS giveaway_donation_overrides (
	giveaway_id UUID NOT NULL REFERENCES giveaways(id) ON DELETE CASCADE,
	platform TEXT NOT NULL,
	unit_type TEXT NOT NULL,
	unit_size BIGINT NOT NULL,
	tickets_per_unit_size BIGINT NOT NULL,
	PRIMARY KEY (giveaway_id, platform, unit_type)
);

CREATE TABLE IF NOT EXISTS entries (
	id UUID PRIMARY KEY,
	giveaway_id UUID NOT NULL REFERENCES giveaways(id) ON DELETE CASCADE,
	platform TEXT NOT NULL,
	external_user_id TEXT NOT NULL,
	username TEXT NOT NULL,
	avatar_url TEXT NOT NULL DEFAULT '',
	method TEXT NOT NULL,
	tickets BIGINT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL,

	UNIQUE (giveaway_id, platform, external_user_id, method)
);

CREATE INDEX IF NOT EXISTS idx_entries_giveaway_order
	ON entries (giveaway_id, created_at, id);

CREATE TABLE IF NOT EXISTS draw_records (
	id UUID PRIMARY KEY,
	giveaway_id UUID NOT NULL REFERENCES giveaways(id) ON DELETE CASCADE,
	winner_entry_id UUID NOT NULL,
	status TEXT NOT NULL,
	ranges JSONB NOT NULL,
	total_tickets BIGINT NOT NULL,
	audit_hash TEXT NOT NULL,
	hash_algorithm TEXT NOT NULL,
	random_payload JSONB NOT NULL,
	signature TEXT NOT NULL,
	verification_url TEXT NOT NULL DEFAULT '',
	drawn_index BIGINT NOT NULL,
	verified BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_draw_records_giveaway
	ON draw_records (giveaway_id, created_at);

CREATE TABLE IF NOT EXISTS role_rules (
	admin_id BIGINT NOT NULL,
	platform TEXT NOT NULL,
	rule_key TEXT NOT NULL,
	tickets_per_unit BIGINT NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
	PRIMARY KEY (admin_id, platform, rule_key)
);

CREATE TABLE IF NOT EXISTS donation_rules (
	admin_id BIGINT NOT NULL,
	platform TEXT NOT NULL,
	unit_type TEXT NOT NULL,
	unit_size BIGINT NOT NULL,
	tickets_per_unit_size BIGINT NOT NULL,
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
	PRIMARY KEY (admin_id, platform, unit_type)
);

CREATE TABLE IF NOT EXISTS connected_accounts (
	admin_id BIGINT NOT NULL,
	platform TEXT NOT NULL,
	channel_id TEXT NOT NULL,
	access_token TEXT NOT NULL,
	refresh_token TEXT NOT NULL DEFAULT '',
	expires_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT 'epoch',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	PRIMARY KEY (admin_id, platform, channel_id)
);

CREATE INDEX IF NOT EXISTS idx_connected_accounts_channel
	ON connected_accounts (platform, channel_id);
`

// EnsureSchema applies the idempotent schema. Statements only add objects,
// so it is safe to run on every startup.
func (c *Client) EnsureSchema(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, dbSchema)
	return err
}
