package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/recipehub/recipekit/core"
)

// PGRecipeStore 是 PostgreSQL 实现的 RecipeStore。
// 只读门面：菜谱记录、用户交互集合、近期变更用户，不承载写入逻辑。
type PGRecipeStore struct {
	db *sql.DB
}

// NewPGRecipeStore 按 DSN 建立连接并 ping 校验。
func NewPGRecipeStore(dsn string) (*PGRecipeStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &PGRecipeStore{db: db}, nil
}

const fetchRecipesSQL = `
SELECT r.recipe_id,
       COALESCE(r.recipe_name, ''),
       COALESCE(c.cat_name, ''),
       COALESCE(r.total_time, 0),
       COALESCE(r.calories, 0),
       ARRAY_REMOVE(ARRAY_AGG(DISTINCT i.ingr_name), NULL),
       ARRAY_REMOVE(ARRAY_AGG(DISTINCT p.pref_name), NULL)
FROM recipe r
LEFT JOIN category c ON c.category_id = r.category
LEFT JOIN recipe_ingr ri ON ri.recipe_id = r.recipe_id
LEFT JOIN ingredient i ON i.ingr_id = ri.ingr_id
LEFT JOIN pref_recipe pr ON pr.recipe_id = r.recipe_id
LEFT JOIN preference p ON p.preference_id = pr.pref_id
WHERE r.recipe_id = ANY($1)
GROUP BY r.recipe_id, r.recipe_name, c.cat_name, r.total_time, r.calories`

func (s *PGRecipeStore) FetchRecipesByIDs(ctx context.Context, ids []int64) ([]*core.RecipeRecord, error) {
	if len(ids) == 0 {
		return []*core.RecipeRecord{}, nil
	}

	rows, err := s.db.QueryContext(ctx, fetchRecipesSQL, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*core.RecipeRecord, 0, len(ids))
	for rows.Next() {
		var (
			r           core.RecipeRecord
			ingredients pq.StringArray
			labels      pq.StringArray
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Category, &r.TotalTime, &r.Calories, &ingredients, &labels); err != nil {
			return nil, err
		}
		r.Ingredients = []string(ingredients)
		r.Labels = []string(labels)
		out = append(out, &r)
	}
	return out, rows.Err()
}

func (s *PGRecipeStore) LikedRecipeIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.interactionIDs(ctx, "SELECT recipe_id FROM liked_recipes WHERE user_id = $1", userID)
}

func (s *PGRecipeStore) DislikedRecipeIDs(ctx context.Context, userID int64) ([]int64, error) {
	return s.interactionIDs(ctx, "SELECT recipe_id FROM disliked_recipes WHERE user_id = $1", userID)
}

func (s *PGRecipeStore) interactionIDs(ctx context.Context, query string, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const recentUsersSQL = `
SELECT DISTINCT user_id FROM (
    SELECT user_id FROM liked_recipes WHERE updated_at >= NOW() - make_interval(secs => $1)
    UNION
    SELECT user_id FROM disliked_recipes WHERE updated_at >= NOW() - make_interval(secs => $1)
) AS recent_users`

func (s *PGRecipeStore) RecentlyChangedUserIDs(ctx context.Context, window time.Duration) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, recentUsersSQL, window.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PGRecipeStore) Close() error {
	return s.db.Close()
}

// 确保 PGRecipeStore 实现了 core.RecipeStore 接口
var _ core.RecipeStore = (*PGRecipeStore)(nil)
