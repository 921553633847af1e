package ingestion

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const rawHeader = "name,id,minutes,contributor_id,submitted,tags,nutrition,n_steps,steps,description,ingredients,n_ingredients"

// rawFixture is a miniature RAW_recipes.csv. Rows 3-7 must be dropped.
var rawFixture = strings.Join([]string{
	rawHeader,
	`arriba   baked winter squash mexican style,137739,55,47892,2005-09-16,"['60-minutes-or-less']","[51.5, 0.0, 13.0, 0.0, 2.0, 0.0, 4.0]",2,"['make a choice and proceed with recipe', 'cut squash']",autumn,"['winter squash', 'mexican seasoning', 'mixed spice', 'honey']",4`,
	`a bit different  breakfast pizza,31490,30,26278,2002-06-17,"['30-minutes-or-less']","[173.4, 18.0, 0.0, 17.0, 22.0, 35.0, 1.0]",1,"['preheat oven to 425 degrees f']",,"['prepared pizza crust', 'sausage patty', 'eggs', 'milk']",4.0`,
	`,40000,10,1,2002-01-01,[],[1.0],1,"['stir']",,"['water']",1`,
	`no ingredients,40001,10,1,2002-01-01,[],[1.0],1,"['stir']",,[],0`,
	`no steps,40002,10,1,2002-01-01,[],[1.0],0,[],,"['water']",1`,
	`bad id,notanumber,10,1,2002-01-01,[],[1.0],1,"['stir']",,"['water']",1`,
	`duplicate pizza,31490,30,26278,2002-06-17,[],[1.0],1,"['bake']",,"['dough']",1`,
	`mystery stew,50000,,1,2002-01-01,[],not-a-list,1,"['simmer']",,"['beans', 'broth']",`,
}, "\n") + "\n"

func writeRaw(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "RAW_recipes.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
