package postgres

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_users",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_achievements",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_elo_history",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "seed_achievements",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS users (
	id BIGINT PRIMARY KEY,
	username TEXT NOT NULL DEFAULT '',
	elo_rating INTEGER NOT NULL DEFAULT 1200,
	matches_played INTEGER NOT NULL DEFAULT 0,
	matches_won INTEGER NOT NULL DEFAULT 0,
	tournaments_played INTEGER NOT NULL DEFAULT 0,
	tournaments_won INTEGER NOT NULL DEFAULT 0,
	achievement_points INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

	CONSTRAINT users_matches_won_check CHECK (matches_won <= matches_played),
	CONSTRAINT users_counters_check CHECK (
		matches_played >= 0 AND matches_won >= 0 AND
		tournaments_played >= 0 AND tournaments_won >= 0 AND
		achievement_points >= 0
	)
);

CREATE INDEX IF NOT EXISTS idx_users_elo_rating ON users (elo_rating DESC, id ASC);
`

const migration001Down = `
DROP TABLE IF EXISTS users;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS achievements (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	icon TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT 'special',
	points INTEGER NOT NULL DEFAULT 0,
	condition_type TEXT NOT NULL,
	condition_value BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_achievements (
	id BIGSERIAL PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	achievement_id BIGINT NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
	unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
	notified BOOLEAN NOT NULL DEFAULT FALSE,

	CONSTRAINT user_achievements_unique UNIQUE (user_id, achievement_id)
);

CREATE INDEX IF NOT EXISTS idx_user_achievements_user ON user_achievements (user_id, unlocked_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS user_achievements;
DROP TABLE IF EXISTS achievements;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS elo_history (
	id UUID PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	old_elo INTEGER NOT NULL,
	new_elo INTEGER NOT NULL,
	change INTEGER NOT NULL,
	reason TEXT NOT NULL,
	related_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_elo_history_user ON elo_history (user_id, created_at DESC, id DESC);
`

const migration003Down = `
DROP TABLE IF EXISTS elo_history;
`

const migration004Up = `
INSERT INTO achievements (name, description, icon, category, points, condition_type, condition_value) VALUES
	('Premier Pas', 'Créer un compte', '👋', 'special', 5, 'account_created', 0),
	('Guerrier', 'Jouer 10 matchs', '⚔️', 'match', 15, 'matches_played', 10),
	('Vétéran', 'Jouer 50 matchs', '🛡️', 'match', 50, 'matches_played', 50),
	('Légende', 'Jouer 100 matchs', '🏅', 'match', 100, 'matches_played', 100),
	('Gagnant', 'Gagner 10 matchs', '🎯', 'match', 20, 'matches_won', 10),
	('Invincible', 'Gagner 50 matchs', '💪', 'match', 75, 'matches_won', 50),
	('Champion de Tournoi', 'Gagner un tournoi', '🏆', 'tournament', 100, 'tournaments_won', 1),
	('Compétiteur', 'Participer à 5 tournois', '🎮', 'tournament', 25, 'tournaments_played', 5),
	('Pro Player', 'Gagner 5 tournois', '👑', 'tournament', 250, 'tournaments_won', 5),
	('Top 10', 'Atteindre le top 10 du classement', '🔝', 'special', 150, 'elo_top_10', 10),
	('Master ELO', 'Atteindre 1800 ELO', '⭐', 'special', 200, 'elo_rating', 1800),
	('Social', 'Envoyer 100 messages dans le chat', '💬', 'social', 30, 'messages_sent', 100),
	('Membre Fondateur', 'Faire partie des 100 premiers inscrits', '🌟', 'special', 500, 'user_id', 100)
ON CONFLICT (name) DO NOTHING;
`

const migration004Down = `
DELETE FROM achievements WHERE name IN (
	'Premier Pas', 'Guerrier', 'Vétéran', 'Légende', 'Gagnant', 'Invincible',
	'Champion de Tournoi', 'Compétiteur', 'Pro Player', 'Top 10', 'Master ELO',
	'Social', 'Membre Fondateur'
);
`
