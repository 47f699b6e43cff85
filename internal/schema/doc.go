// Package schema описывает форму входа и выхода task.
//
// Schema — это упорядоченный список Field. Каждое поле имеет внутреннее
// имя, опциональный wire alias, допустимые типы (union), флаг Required
// и значение по умолчанию. Схема не валидирует payload — этим занимается
// пакет worker. Здесь только описание и проверка самого объявления (Check).
//
//	in := schema.New(
//	    schema.Field{Name: "http_request", Kinds: []schema.Kind{schema.KindString, schema.KindObject}, Required: true},
//	)
//	in.Keys() // ["http_request"]
package schema
