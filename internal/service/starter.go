package service

import "atelier/internal/model"

// 新建空组件的起始代码，打开编辑器就有东西可看可改
const defaultReactCode = `export default function MyComponent() {
  return (
    <div className="flex min-h-screen items-center justify-center bg-gray-50">
      <div className="rounded-xl bg-white p-8 shadow-md text-center">
        <h1 className="text-2xl font-semibold text-gray-900">Hello, Atelier</h1>
        <p className="mt-2 text-gray-500">
          Describe the component you want in the chat to get started.
        </p>
      </div>
    </div>
  );
}
`

const defaultHTMLCode = `<div class="flex min-h-screen items-center justify-center bg-gray-50">
  <div class="rounded-xl bg-white p-8 shadow-md text-center">
    <h1 class="text-2xl font-semibold text-gray-900">Hello, Atelier</h1>
    <p class="mt-2 text-gray-500">
      Describe the component you want in the chat to get started.
    </p>
  </div>
</div>
`

func starterCode(framework model.Framework) string {
	if framework == model.FrameworkHTML {
		return defaultHTMLCode
	}
	return defaultReactCode
}
