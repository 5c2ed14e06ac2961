package domain

import (
	"sort"
	"strings"
)

// DefaultMinSimilarity — минимальная длина общего участка имён по умолчанию.
// Порог ниже двух символов даёт слишком много шума в рекомендациях.
const DefaultMinSimilarity = 2

// FindSimilar подбирает товары, похожие на ref, по эвристике «самый длинный
// общий непрерывный участок имени» (без учёта регистра). Эвристика сознательно
// терпима к формам слова ("Tomato"/"Tomatoes" делят длинный общий участок).
// Кандидаты с баллом ниже minScore отбрасываются; при равных баллах сохраняется
// порядок каталога; возвращается не более limit результатов. limit <= 0 даёт
// пустой список, minScore <= 0 заменяется на DefaultMinSimilarity.
// Функция не возвращает ошибок: в худшем случае список просто пуст.
func FindSimilar(ref Product, candidates []Product, limit, minScore int) []Product {
	if limit <= 0 || len(candidates) == 0 {
		return nil
	}
	if minScore <= 0 {
		minScore = DefaultMinSimilarity
	}

	type scored struct {
		product Product
		score   int
	}

	refName := []rune(strings.ToLower(ref.Name))
	matched := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.ID == ref.ID {
			continue
		}
		score := longestCommonRun(refName, []rune(strings.ToLower(candidate.Name)))
		if score < minScore {
			continue
		}
		matched = append(matched, scored{product: candidate, score: score})
	}

	// Стабильная сортировка сохраняет порядок каталога при равных баллах.
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].score > matched[j].score
	})

	if len(matched) > limit {
		matched = matched[:limit]
	}

	result := make([]Product, 0, len(matched))
	for _, m := range matched {
		result = append(result, m.product)
	}
	return result
}

// longestCommonRun возвращает длину самой длинной общей непрерывной
// последовательности символов двух строк. Перебираются все пары стартовых
// позиций; нужна только длина, сам участок не восстанавливается.
func longestCommonRun(a, b []rune) int {
	best := 0
	for i := range a {
		for j := range b {
			length := 0
			for i+length < len(a) && j+length < len(b) && a[i+length] == b[j+length] {
				length++
			}
			if length > best {
				best = length
			}
		}
	}
	return best
}
