// Package taskdef собирает domain.TaskDefinition из трёх слоёв.
//
// Слои в порядке возрастания приоритета:
//
//	SystemDefaults → Template → Declaration
//
// Поле берётся из декларации, если оно там задано (не nil),
// иначе из шаблона, иначе из системных значений по умолчанию.
// inputKeys/outputKeys всегда вычисляются из схем воркера
// и шаблоном не переопределяются.
//
// Пример:
//
//	def, err := taskdef.Build(
//		taskdef.Declaration{
//			Name:   "http_get_generic",
//			Labels: []string{"BASICS"},
//			Overrides: taskdef.Overrides{
//				RetryCount: taskdef.Ptr(3),
//			},
//		},
//		input, output,
//		nil,
//	)
package taskdef
