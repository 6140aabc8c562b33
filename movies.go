package main

// Movie is one catalog entry. Answer is the canonical form used for
// answer comparison: lower-cased and trimmed. Folder names the asset
// directory holding the stills, addressed as scenes/<folder>/<n>.jpg.
type Movie struct {
	Answer      string `json:"movie"`
	Folder      string `json:"folder"`
	TotalScenes int    `json:"totalScenes"`
}

var moviePool = []Movie{
	{Answer: "the dark knight", Folder: "darkknight", TotalScenes: 3},
	{Answer: "forrest gump", Folder: "forrestgump", TotalScenes: 3},
	{Answer: "goodfellas", Folder: "goodfellas", TotalScenes: 3},
	{Answer: "inception", Folder: "inception", TotalScenes: 3},
	{Answer: "interstellar", Folder: "interstellar", TotalScenes: 3},
	{Answer: "pulp fiction", Folder: "pulpfiction", TotalScenes: 3},
	{Answer: "the shawshank redemption", Folder: "theshawshankredemption", TotalScenes: 3},
	{Answer: "fight club", Folder: "fightclub", TotalScenes: 3},
	{Answer: "kill bill", Folder: "killbill", TotalScenes: 3},
	{Answer: "12 angry men", Folder: "12angrymen", TotalScenes: 3},
}

// remainingMovies returns the catalog entries not yet played this game,
// preserving catalog order.
func remainingMovies(used map[string]bool) []Movie {
	remaining := make([]Movie, 0, len(moviePool))
	for _, m := range moviePool {
		if used[m.Answer] {
			continue
		}
		remaining = append(remaining, m)
	}
	return remaining
}
